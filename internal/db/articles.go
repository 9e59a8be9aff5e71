package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

// CreateArticle inserts a pending article and assigns the next episode
// number in the same statement, so concurrent inserts never collide.
func (db *DB) CreateArticle(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (id, topic, keyword, status, episode_number)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(episode_number), 0) + 1 FROM articles))
		RETURNING episode_number, created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		article.ID, article.Topic, article.Keyword, article.Status,
	).Scan(&article.EpisodeNumber, &article.CreatedAt, &article.UpdatedAt)
}

func (db *DB) GetArticle(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	query := `
		SELECT
			id, topic, keyword, title, slug, outline, markdown, html,
			word_count, reading_minutes, episode_number, status,
			hero_image_asset_id, error_message, created_at, updated_at
		FROM articles
		WHERE id = $1
	`

	article := &models.Article{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&article.ID, &article.Topic, &article.Keyword, &article.Title,
		&article.Slug, &article.Outline, &article.Markdown, &article.HTML,
		&article.WordCount, &article.ReadingMinutes, &article.EpisodeNumber,
		&article.Status, &article.HeroImageAssetID, &article.ErrorMessage,
		&article.CreatedAt, &article.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

func (db *DB) ListArticles(ctx context.Context, status string, limit, offset int) ([]models.Article, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `
		SELECT
			id, topic, keyword, title, slug, outline, markdown, html,
			word_count, reading_minutes, episode_number, status,
			hero_image_asset_id, error_message, created_at, updated_at
		FROM articles
	`

	if status != "" {
		query := baseSelect + ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, query, status, limit, offset)
	} else {
		query := baseSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(
			&a.ID, &a.Topic, &a.Keyword, &a.Title, &a.Slug, &a.Outline,
			&a.Markdown, &a.HTML, &a.WordCount, &a.ReadingMinutes,
			&a.EpisodeNumber, &a.Status, &a.HeroImageAssetID,
			&a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// GetLatestReadyArticle returns the newest article ready for distribution.
func (db *DB) GetLatestReadyArticle(ctx context.Context) (*models.Article, error) {
	query := `
		SELECT
			id, topic, keyword, title, slug, outline, markdown, html,
			word_count, reading_minutes, episode_number, status,
			hero_image_asset_id, error_message, created_at, updated_at
		FROM articles
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	article := &models.Article{}
	err := db.QueryRowContext(ctx, query, models.ArticleStatusReady).Scan(
		&article.ID, &article.Topic, &article.Keyword, &article.Title,
		&article.Slug, &article.Outline, &article.Markdown, &article.HTML,
		&article.WordCount, &article.ReadingMinutes, &article.EpisodeNumber,
		&article.Status, &article.HeroImageAssetID, &article.ErrorMessage,
		&article.CreatedAt, &article.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no ready article found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest article: %w", err)
	}

	return article, nil
}

func (db *DB) IsDuplicateArticleTopic(ctx context.Context, topicHash string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE md5(lower(trim(topic))) = $1)`,
		topicHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article topic: %w", err)
	}
	return exists, nil
}

func (db *DB) UpdateArticleStatus(ctx context.Context, id uuid.UUID, status models.ArticleStatus) error {
	query := `UPDATE articles SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

// UpdateArticleContent stores the written article after generation.
func (db *DB) UpdateArticleContent(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles
		SET title = $1, slug = $2, outline = $3, markdown = $4, html = $5,
		    word_count = $6, reading_minutes = $7, hero_image_asset_id = $8,
		    status = $9, updated_at = NOW()
		WHERE id = $10
	`
	_, err := db.ExecContext(
		ctx, query,
		article.Title, article.Slug, article.Outline, article.Markdown,
		article.HTML, article.WordCount, article.ReadingMinutes,
		article.HeroImageAssetID, article.Status, article.ID,
	)
	return err
}

func (db *DB) UpdateArticleError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE articles
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, models.ArticleStatusFailed, errorMessage, id)
	return err
}
