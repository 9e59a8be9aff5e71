package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

// UpsertLead inserts a lead found by the hunter, keyed by place_id so a
// rescan never duplicates a business. Returns true when the row is new.
func (db *DB) UpsertLead(ctx context.Context, lead *models.Lead) (bool, error) {
	query := `
		INSERT INTO leads (
			id, name, category, address, rating, user_ratings_total,
			place_id, style, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (place_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			user_ratings_total = EXCLUDED.user_ratings_total,
			updated_at = NOW()
		RETURNING id, status, (xmax = 0) AS inserted, created_at, updated_at
	`

	var inserted bool
	err := db.QueryRowContext(
		ctx, query,
		lead.ID, lead.Name, lead.Category, lead.Address, lead.Rating,
		lead.UserRatingsTotal, lead.PlaceID, lead.Style, lead.Status,
	).Scan(&lead.ID, &lead.Status, &inserted, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert lead: %w", err)
	}

	return inserted, nil
}

func (db *DB) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := `
		SELECT
			id, name, category, address, rating, user_ratings_total,
			place_id, style, email_draft, status, created_at, updated_at
		FROM leads
		WHERE id = $1
	`

	lead := &models.Lead{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&lead.ID, &lead.Name, &lead.Category, &lead.Address, &lead.Rating,
		&lead.UserRatingsTotal, &lead.PlaceID, &lead.Style,
		&lead.EmailDraft, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return lead, nil
}

func (db *DB) ListLeads(ctx context.Context, status string, limit, offset int) ([]models.Lead, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `
		SELECT
			id, name, category, address, rating, user_ratings_total,
			place_id, style, email_draft, status, created_at, updated_at
		FROM leads
	`

	if status != "" {
		query := baseSelect + ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, query, status, limit, offset)
	} else {
		query := baseSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Category, &l.Address, &l.Rating,
			&l.UserRatingsTotal, &l.PlaceID, &l.Style,
			&l.EmailDraft, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, l)
	}

	return leads, nil
}

func (db *DB) SetLeadEmailDraft(ctx context.Context, id uuid.UUID, draft string) error {
	query := `
		UPDATE leads
		SET email_draft = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, draft, models.LeadStatusDrafted, id)
	return err
}

func (db *DB) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) error {
	query := `UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}
