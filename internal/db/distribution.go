package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

func (db *DB) RecordDistributionAction(ctx context.Context, action *models.DistributionAction) error {
	query := `
		INSERT INTO distribution_actions (
			id, content_type, content_ref, platform, tier, action, detail
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		action.ID, action.ContentType, action.ContentRef, action.Platform,
		action.Tier, action.Action, action.Detail,
	).Scan(&action.CreatedAt)
}

// ListDistributionActions returns the ledger for the last N days, newest first.
func (db *DB) ListDistributionActions(ctx context.Context, days int) ([]models.DistributionAction, error) {
	query := `
		SELECT id, content_type, content_ref, platform, tier, action, detail, created_at
		FROM distribution_actions
		WHERE created_at > NOW() - ($1 || ' days')::interval
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list distribution actions: %w", err)
	}
	defer rows.Close()

	var actions []models.DistributionAction
	for rows.Next() {
		var a models.DistributionAction
		if err := rows.Scan(
			&a.ID, &a.ContentType, &a.ContentRef, &a.Platform,
			&a.Tier, &a.Action, &a.Detail, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan distribution action: %w", err)
		}
		actions = append(actions, a)
	}

	return actions, nil
}

// CountActionsByTier aggregates the ledger for the digest message.
func (db *DB) CountActionsByTier(ctx context.Context, days int) (map[models.Tier]int, error) {
	query := `
		SELECT tier, COUNT(*)
		FROM distribution_actions
		WHERE created_at > NOW() - ($1 || ' days')::interval
		GROUP BY tier
	`

	rows, err := db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Tier]int)
	for rows.Next() {
		var tier models.Tier
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		counts[tier] = count
	}

	return counts, nil
}

// CreateOpportunity records a monitor finding. Returns false when the URL
// was already captured by an earlier scan.
func (db *DB) CreateOpportunity(ctx context.Context, opp *models.Opportunity) (bool, error) {
	query := `
		INSERT INTO opportunities (
			id, source, source_ref, title, url, score, danger_level,
			suggested_reply, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO NOTHING
		RETURNING created_at
	`

	err := db.QueryRowContext(
		ctx, query,
		opp.ID, opp.Source, opp.SourceRef, opp.Title, opp.URL,
		opp.Score, opp.DangerLevel, opp.SuggestedReply, opp.Status,
	).Scan(&opp.CreatedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create opportunity: %w", err)
	}

	return true, nil
}

func (db *DB) ListOpportunities(ctx context.Context, status string, limit int) ([]models.Opportunity, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `
		SELECT id, source, source_ref, title, url, score, danger_level,
		       suggested_reply, status, created_at
		FROM opportunities
	`

	if status != "" {
		query := baseSelect + ` WHERE status = $1 ORDER BY score DESC, danger_level ASC LIMIT $2`
		rows, err = db.QueryContext(ctx, query, status, limit)
	} else {
		query := baseSelect + ` ORDER BY score DESC, danger_level ASC LIMIT $1`
		rows, err = db.QueryContext(ctx, query, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []models.Opportunity
	for rows.Next() {
		var o models.Opportunity
		if err := rows.Scan(
			&o.ID, &o.Source, &o.SourceRef, &o.Title, &o.URL, &o.Score,
			&o.DangerLevel, &o.SuggestedReply, &o.Status, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, o)
	}

	return opportunities, nil
}

func (db *DB) UpdateOpportunityStatus(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) error {
	result, err := db.ExecContext(ctx, `UPDATE opportunities SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("opportunity not found")
	}

	return nil
}

// SetOpportunityReply stores a drafted reply and queues the opportunity
// for operator approval.
func (db *DB) SetOpportunityReply(ctx context.Context, id uuid.UUID, reply string) error {
	query := `UPDATE opportunities SET suggested_reply = $1, status = $2 WHERE id = $3`
	_, err := db.ExecContext(ctx, query, reply, models.OpportunityStatusSentForApproval, id)
	return err
}
