package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/giftloop/megaphone/internal/models"
)

func (db *DB) CreatePackage(ctx context.Context, pkg *models.ContentPackage) error {
	query := `
		INSERT INTO content_packages (
			id, topic, occasion, platform, status, topic_hash, run_date, voice_persona
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		pkg.ID, pkg.Topic, pkg.Occasion, pkg.Platform,
		pkg.Status, pkg.TopicHash, pkg.RunDate, pkg.VoicePersona,
	).Scan(&pkg.CreatedAt, &pkg.UpdatedAt)
}

// IsDuplicateTopicHash reports whether the hash was already used.
// A unique index on (topic_hash) also enforces this at insert time; the
// pre-check keeps the daily run from burning generation calls on rejects.
func (db *DB) IsDuplicateTopicHash(ctx context.Context, topicHash string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM content_packages WHERE topic_hash = $1)`,
		topicHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check topic hash: %w", err)
	}
	return exists, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint violation.
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func (db *DB) GetPackage(ctx context.Context, id uuid.UUID) (*models.ContentPackage, error) {
	query := `
		SELECT
			id, topic, occasion, platform, status, hook, caption, hashtags,
			cta, voiceover_script, voice_persona, video_asset_id, topic_hash,
			run_date, error_message, created_at, updated_at
		FROM content_packages
		WHERE id = $1
	`

	pkg := &models.ContentPackage{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&pkg.ID, &pkg.Topic, &pkg.Occasion, &pkg.Platform, &pkg.Status,
		&pkg.Hook, &pkg.Caption, &pkg.Hashtags, &pkg.CTA,
		&pkg.VoiceoverScript, &pkg.VoicePersona, &pkg.VideoAssetID,
		&pkg.TopicHash, &pkg.RunDate, &pkg.ErrorMessage,
		&pkg.CreatedAt, &pkg.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("package not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return pkg, nil
}

// ListPackages returns packages ordered by creation date (newest first).
// Supports optional status filter, limit, and offset for pagination.
func (db *DB) ListPackages(ctx context.Context, status string, limit, offset int) ([]models.ContentPackage, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `
		SELECT
			id, topic, occasion, platform, status, hook, caption, hashtags,
			cta, voiceover_script, voice_persona, video_asset_id, topic_hash,
			run_date, error_message, created_at, updated_at
		FROM content_packages
	`

	if status != "" {
		query := baseSelect + ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, query, status, limit, offset)
	} else {
		query := baseSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []models.ContentPackage
	for rows.Next() {
		var p models.ContentPackage
		if err := rows.Scan(
			&p.ID, &p.Topic, &p.Occasion, &p.Platform, &p.Status,
			&p.Hook, &p.Caption, &p.Hashtags, &p.CTA,
			&p.VoiceoverScript, &p.VoicePersona, &p.VideoAssetID,
			&p.TopicHash, &p.RunDate, &p.ErrorMessage,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}

	return packages, nil
}

// ListRunPackages returns every package created by a given daily run.
func (db *DB) ListRunPackages(ctx context.Context, runDate string) ([]models.ContentPackage, error) {
	query := `
		SELECT
			id, topic, occasion, platform, status, hook, caption, hashtags,
			cta, voiceover_script, voice_persona, video_asset_id, topic_hash,
			run_date, error_message, created_at, updated_at
		FROM content_packages
		WHERE run_date = $1
		ORDER BY created_at
	`

	rows, err := db.QueryContext(ctx, query, runDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list run packages: %w", err)
	}
	defer rows.Close()

	var packages []models.ContentPackage
	for rows.Next() {
		var p models.ContentPackage
		if err := rows.Scan(
			&p.ID, &p.Topic, &p.Occasion, &p.Platform, &p.Status,
			&p.Hook, &p.Caption, &p.Hashtags, &p.CTA,
			&p.VoiceoverScript, &p.VoicePersona, &p.VideoAssetID,
			&p.TopicHash, &p.RunDate, &p.ErrorMessage,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}

	return packages, nil
}

func (db *DB) CountPackages(ctx context.Context, status string) (int, error) {
	var count int
	if status != "" {
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_packages WHERE status = $1`, status).Scan(&count)
		return count, err
	}
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_packages`).Scan(&count)
	return count, err
}

func (db *DB) UpdatePackageStatus(ctx context.Context, id uuid.UUID, status models.PackageStatus) error {
	query := `UPDATE content_packages SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

// UpdatePackageContent stores the generated text fields after the
// generation stage succeeds.
func (db *DB) UpdatePackageContent(ctx context.Context, pkg *models.ContentPackage) error {
	query := `
		UPDATE content_packages
		SET hook = $1, caption = $2, hashtags = $3, cta = $4,
		    voiceover_script = $5, voice_persona = $6, status = $7, updated_at = NOW()
		WHERE id = $8
	`
	_, err := db.ExecContext(
		ctx, query,
		pkg.Hook, pkg.Caption, pkg.Hashtags, pkg.CTA,
		pkg.VoiceoverScript, pkg.VoicePersona, pkg.Status, pkg.ID,
	)
	return err
}

func (db *DB) UpdatePackageError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE content_packages
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, models.PackageStatusFailed, errorMessage, id)
	return err
}

func (db *DB) SetPackageVideo(ctx context.Context, packageID, assetID uuid.UUID) error {
	query := `
		UPDATE content_packages
		SET video_asset_id = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, assetID, models.PackageStatusDelivering, packageID)
	return err
}
