package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

// ListActiveTopics returns the whole active catalog ordered by search volume.
func (db *DB) ListActiveTopics(ctx context.Context) ([]models.Topic, error) {
	query := `
		SELECT id, keyword, category, title, angle, search_volume, active, created_at
		FROM topics
		WHERE active
		ORDER BY search_volume DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(
			&t.ID, &t.Keyword, &t.Category, &t.Title, &t.Angle,
			&t.SearchVolume, &t.Active, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, t)
	}

	return topics, nil
}

// SeedTopics loads the built-in catalog on first boot. Existing keywords
// are left untouched so operators can tune them.
func (db *DB) SeedTopics(ctx context.Context, topics []models.Topic) (int, error) {
	query := `
		INSERT INTO topics (id, keyword, category, title, angle, search_volume, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (keyword) DO NOTHING
	`

	inserted := 0
	for _, t := range topics {
		id := t.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		result, err := db.ExecContext(ctx, query, id, t.Keyword, t.Category, t.Title, t.Angle, t.SearchVolume)
		if err != nil {
			return inserted, fmt.Errorf("failed to seed topic %q: %w", t.Keyword, err)
		}
		rows, err := result.RowsAffected()
		if err == nil && rows > 0 {
			inserted++
		}
	}

	return inserted, nil
}
