package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

// CreateOperator registers a Telegram recipient for deliveries and digests.
func (db *DB) CreateOperator(ctx context.Context, op *models.Operator) error {
	query := `
		INSERT INTO operators (id, name, chat_id, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		op.ID, op.Name, op.ChatID, op.Active,
	).Scan(&op.CreatedAt)
}

// ListActiveOperators returns every operator that should receive deliveries.
func (db *DB) ListActiveOperators(ctx context.Context) ([]models.Operator, error) {
	query := `
		SELECT id, name, chat_id, active, created_at
		FROM operators
		WHERE active
		ORDER BY created_at
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	defer rows.Close()

	var operators []models.Operator
	for rows.Next() {
		var op models.Operator
		if err := rows.Scan(&op.ID, &op.Name, &op.ChatID, &op.Active, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, op)
	}

	return operators, nil
}

func (db *DB) GetOperatorByChatID(ctx context.Context, chatID string) (*models.Operator, error) {
	query := `
		SELECT id, name, chat_id, active, created_at
		FROM operators
		WHERE chat_id = $1
	`

	op := &models.Operator{}
	err := db.QueryRowContext(ctx, query, chatID).Scan(
		&op.ID, &op.Name, &op.ChatID, &op.Active, &op.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("operator not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}

	return op, nil
}

func (db *DB) SetOperatorActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := db.ExecContext(ctx, `UPDATE operators SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update operator: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("operator not found")
	}

	return nil
}
