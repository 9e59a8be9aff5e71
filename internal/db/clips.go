package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

// RegisterSourceClip inserts a clip-library entry, or refreshes its
// duration if the path is already registered (library rescan).
func (db *DB) RegisterSourceClip(ctx context.Context, clip *models.SourceClip) error {
	query := `
		INSERT INTO source_clips (id, file_path, category, duration_sec)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_path) DO UPDATE SET
			category = EXCLUDED.category,
			duration_sec = EXCLUDED.duration_sec
		RETURNING id, times_used, created_at
	`

	return db.QueryRowContext(
		ctx, query,
		clip.ID, clip.FilePath, clip.Category, clip.DurationSec,
	).Scan(&clip.ID, &clip.TimesUsed, &clip.CreatedAt)
}

// GetLeastUsedClip returns the least-recently-used clip in a category.
// Never-used clips come first, then oldest last_used_at.
func (db *DB) GetLeastUsedClip(ctx context.Context, category models.ClipCategory) (*models.SourceClip, error) {
	query := `
		SELECT id, file_path, category, duration_sec, times_used, last_used_at, created_at
		FROM source_clips
		WHERE category = $1
		ORDER BY last_used_at ASC NULLS FIRST, times_used ASC
		LIMIT 1
	`

	clip := &models.SourceClip{}
	err := db.QueryRowContext(ctx, query, category).Scan(
		&clip.ID, &clip.FilePath, &clip.Category, &clip.DurationSec,
		&clip.TimesUsed, &clip.LastUsedAt, &clip.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no clips in category %s", category)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clip: %w", err)
	}

	return clip, nil
}

func (db *DB) ListSourceClips(ctx context.Context) ([]models.SourceClip, error) {
	query := `
		SELECT id, file_path, category, duration_sec, times_used, last_used_at, created_at
		FROM source_clips
		ORDER BY category, file_path
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clips: %w", err)
	}
	defer rows.Close()

	var clips []models.SourceClip
	for rows.Next() {
		var clip models.SourceClip
		if err := rows.Scan(
			&clip.ID, &clip.FilePath, &clip.Category, &clip.DurationSec,
			&clip.TimesUsed, &clip.LastUsedAt, &clip.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, clip)
	}

	return clips, nil
}

func (db *DB) CountClipsInCategory(ctx context.Context, category models.ClipCategory) (int, error) {
	var count int
	err := db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM source_clips WHERE category = $1`,
		category,
	).Scan(&count)
	return count, err
}

func (db *DB) MarkClipUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE source_clips
		SET times_used = times_used + 1, last_used_at = NOW()
		WHERE id = $1
	`
	_, err := db.ExecContext(ctx, query, id)
	return err
}
