package worker

import (
	"context"
	"fmt"
	"html"
	"math/rand"
	"os"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
)

// handleWriteArticle drafts the blog article, attaches a hero image, and
// uploads the rendered HTML. The hero is best-effort: an article without
// one still goes to ready.
func (w *Worker) handleWriteArticle(ctx context.Context, job *queue.Job) error {
	if job.ArticleID == nil {
		return fmt.Errorf("article ID missing")
	}

	article, err := w.db.GetArticle(ctx, *job.ArticleID)
	if err != nil {
		return fmt.Errorf("failed to get article: %w", err)
	}

	if err := w.db.UpdateArticleStatus(ctx, article.ID, models.ArticleStatusWriting); err != nil {
		return fmt.Errorf("failed to update article status: %w", err)
	}

	if err := w.writeArticle(ctx, article); err != nil {
		w.db.UpdateArticleError(ctx, article.ID, err.Error())
		return err
	}
	return nil
}

func (w *Worker) writeArticle(ctx context.Context, article *models.Article) error {
	rng := packageRNG(article.ID)

	draft, err := w.articles.WriteArticle(ctx, article.Topic, article.Keyword, rng)
	if err != nil {
		return fmt.Errorf("failed to draft article: %w", err)
	}

	if assetID := w.attachHeroImage(ctx, article, rng); assetID != nil {
		article.HeroImageAssetID = assetID
	}

	htmlPath := w.storage.GenerateStoragePath(article.ID, "article.html")
	if err := w.uploadWithLimit(ctx, "article "+article.ID.String(), func() error {
		return w.storage.Upload(ctx, htmlPath, []byte(draft.HTML), "text/html; charset=utf-8")
	}); err != nil {
		return fmt.Errorf("failed to upload article html: %w", err)
	}

	htmlAsset := &models.Asset{
		ID:            uuid.New(),
		ArticleID:     &article.ID,
		Type:          models.AssetTypeArticleHTML,
		StorageBucket: w.storage.Bucket,
		StoragePath:   htmlPath,
		ContentType:   strPtr("text/html; charset=utf-8"),
		ByteSize:      int64Ptr(int64(len(draft.HTML))),
	}
	if err := w.db.CreateAsset(ctx, htmlAsset); err != nil {
		return fmt.Errorf("failed to record article asset: %w", err)
	}

	article.Title = strPtr(draft.Title)
	article.Slug = strPtr(draft.Slug)
	article.Outline = models.StringList(draft.Outline)
	article.Markdown = strPtr(draft.Markdown)
	article.HTML = strPtr(draft.HTML)
	article.WordCount = draft.WordCount
	article.ReadingMinutes = draft.ReadingMinutes
	article.Status = models.ArticleStatusReady

	if err := w.db.UpdateArticleContent(ctx, article); err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}

	w.log.Info("article ready",
		"article", article.ID,
		"title", draft.Title,
		"words", draft.WordCount,
		"provider", draft.Provider)

	w.previewArticle(ctx, article, draft)
	return nil
}

// previewArticle drops the rendered HTML into the operator chat so the
// piece can be read before distribution picks it up.
func (w *Worker) previewArticle(ctx context.Context, article *models.Article, draft *services.ArticleDraft) {
	path := w.ffmpeg.CreateTempFile(fmt.Sprintf("article_%s.html", article.ID.String()[:8]))
	defer w.ffmpeg.Cleanup(path)
	if err := os.WriteFile(path, []byte(draft.HTML), 0644); err != nil {
		w.log.Warn("article preview staging failed", "article", article.ID, "err", err)
		return
	}

	caption := fmt.Sprintf("📝 <b>Article ready</b>\n%s · %d words · %d min read",
		html.EscapeString(draft.Title), draft.WordCount, draft.ReadingMinutes)
	if err := w.telegram.SendDocument(ctx, path, caption); err != nil {
		w.log.Warn("article preview send failed", "article", article.ID, "err", err)
	}
}

// attachHeroImage sources and uploads the 1200x630 hero. Any failure is
// logged and the article ships without one.
func (w *Worker) attachHeroImage(ctx context.Context, article *models.Article, rng *rand.Rand) *uuid.UUID {
	spec, ok := services.SpecByName("hero")
	if !ok {
		return nil
	}

	raw, provider, err := w.photos.FetchImage(ctx, article.Keyword, spec, rng)
	if err != nil {
		w.log.Warn("hero image fetch failed", "article", article.ID, "err", err)
		return nil
	}

	processed, err := w.photos.ProcessForSpec(raw, spec)
	if err != nil {
		w.log.Warn("hero image processing failed", "article", article.ID, "err", err)
		return nil
	}

	storagePath := w.storage.GenerateStoragePath(article.ID, "hero.jpg")
	if err := w.uploadWithLimit(ctx, "hero "+article.ID.String(), func() error {
		return w.storage.Upload(ctx, storagePath, processed, "image/jpeg")
	}); err != nil {
		w.log.Warn("hero image upload failed", "article", article.ID, "err", err)
		return nil
	}

	asset := &models.Asset{
		ID:            uuid.New(),
		ArticleID:     &article.ID,
		Type:          models.AssetTypeImage,
		StorageBucket: w.storage.Bucket,
		StoragePath:   storagePath,
		ContentType:   strPtr("image/jpeg"),
		ByteSize:      int64Ptr(int64(len(processed))),
	}
	if err := w.db.CreateAsset(ctx, asset); err != nil {
		w.log.Warn("hero asset record failed", "article", article.ID, "err", err)
		return nil
	}

	w.log.Info("hero image attached", "article", article.ID, "provider", provider)
	return &asset.ID
}
