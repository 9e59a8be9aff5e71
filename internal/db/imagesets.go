package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

func (db *DB) CreateImageSet(ctx context.Context, set *models.ImageSet) error {
	query := `
		INSERT INTO image_sets (id, topic, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		set.ID, set.Topic, set.Status,
	).Scan(&set.CreatedAt, &set.UpdatedAt)
}

func (db *DB) GetImageSet(ctx context.Context, id uuid.UUID) (*models.ImageSet, error) {
	query := `
		SELECT id, topic, specs_used, status, error_message, created_at, updated_at
		FROM image_sets
		WHERE id = $1
	`

	set := &models.ImageSet{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&set.ID, &set.Topic, &set.SpecsUsed, &set.Status,
		&set.ErrorMessage, &set.CreatedAt, &set.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("image set not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image set: %w", err)
	}

	return set, nil
}

func (db *DB) UpdateImageSetStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE image_sets SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

// FinishImageSet records which specs were produced and marks the set ready.
func (db *DB) FinishImageSet(ctx context.Context, id uuid.UUID, specsUsed models.JSONB) error {
	query := `
		UPDATE image_sets
		SET specs_used = $1, status = 'ready', updated_at = NOW()
		WHERE id = $2
	`
	_, err := db.ExecContext(ctx, query, specsUsed, id)
	return err
}

func (db *DB) UpdateImageSetError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE image_sets
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := db.ExecContext(ctx, query, errorMessage, id)
	return err
}
