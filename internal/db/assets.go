package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

func (db *DB) CreateAsset(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO assets (
			id, package_id, article_id, image_set_id, type,
			storage_bucket, storage_path, content_type, byte_size
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		asset.ID, asset.PackageID, asset.ArticleID, asset.ImageSetID, asset.Type,
		asset.StorageBucket, asset.StoragePath, asset.ContentType, asset.ByteSize,
	).Scan(&asset.CreatedAt)
}

func (db *DB) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	query := `
		SELECT
			id, package_id, article_id, image_set_id, type,
			storage_bucket, storage_path, content_type, byte_size, created_at
		FROM assets
		WHERE id = $1
	`

	asset := &models.Asset{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&asset.ID, &asset.PackageID, &asset.ArticleID, &asset.ImageSetID,
		&asset.Type, &asset.StorageBucket, &asset.StoragePath,
		&asset.ContentType, &asset.ByteSize, &asset.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("asset not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return asset, nil
}

func (db *DB) GetPackageAssets(ctx context.Context, packageID uuid.UUID) ([]models.Asset, error) {
	return db.listAssets(ctx, `package_id`, packageID)
}

func (db *DB) GetArticleAssets(ctx context.Context, articleID uuid.UUID) ([]models.Asset, error) {
	return db.listAssets(ctx, `article_id`, articleID)
}

func (db *DB) GetImageSetAssets(ctx context.Context, imageSetID uuid.UUID) ([]models.Asset, error) {
	return db.listAssets(ctx, `image_set_id`, imageSetID)
}

func (db *DB) listAssets(ctx context.Context, column string, id uuid.UUID) ([]models.Asset, error) {
	query := fmt.Sprintf(`
		SELECT
			id, package_id, article_id, image_set_id, type,
			storage_bucket, storage_path, content_type, byte_size, created_at
		FROM assets
		WHERE %s = $1
		ORDER BY created_at
	`, column)

	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var asset models.Asset
		err := rows.Scan(
			&asset.ID, &asset.PackageID, &asset.ArticleID, &asset.ImageSetID,
			&asset.Type, &asset.StorageBucket, &asset.StoragePath,
			&asset.ContentType, &asset.ByteSize, &asset.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	return assets, nil
}
