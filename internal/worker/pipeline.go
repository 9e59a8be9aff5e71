package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/models"
)

// The methods here run pipelines synchronously in-process, without the
// queue. The CLI uses them; the server path goes through job handlers.

// NewPackage creates the package row for a one-off brief.
func (w *Worker) NewPackage(ctx context.Context, topic string, occasion models.Occasion, platform models.Platform) (*models.ContentPackage, error) {
	hash := models.TopicHash(topic)
	dup, err := w.db.IsDuplicateTopicHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic dedup: %w", err)
	}
	if dup {
		return nil, fmt.Errorf("a package for topic %q already exists", topic)
	}

	pkg := &models.ContentPackage{
		ID:        uuid.New(),
		Topic:     topic,
		Occasion:  occasion,
		Platform:  platform,
		Status:    models.PackageStatusPending,
		TopicHash: hash,
	}
	if err := w.db.CreatePackage(ctx, pkg); err != nil {
		// The dedup pre-check races with the insert; the unique index settles it
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("a package for topic %q already exists", topic)
		}
		return nil, fmt.Errorf("failed to create package: %w", err)
	}
	return pkg, nil
}

// RunPackagePipeline takes one package through generate, render, and
// deliver in sequence.
func (w *Worker) RunPackagePipeline(ctx context.Context, packageID uuid.UUID) error {
	pkg, err := w.db.GetPackage(ctx, packageID)
	if err != nil {
		return fmt.Errorf("failed to get package: %w", err)
	}

	if err := w.generatePackage(ctx, pkg); err != nil {
		w.db.UpdatePackageError(ctx, pkg.ID, err.Error())
		return err
	}

	if err := w.renderPackage(ctx, pkg); err != nil {
		w.db.UpdatePackageError(ctx, pkg.ID, err.Error())
		return err
	}

	// Render linked the video asset in the database; reload before delivery
	pkg, err = w.db.GetPackage(ctx, packageID)
	if err != nil {
		return fmt.Errorf("failed to reload package: %w", err)
	}
	return w.deliverPackage(ctx, pkg)
}

// RunDailyBatch plans the day's packages and runs each pipeline in
// sequence. A failed package is logged and the batch keeps going. A
// planned count of zero means every topic was already covered today.
func (w *Worker) RunDailyBatch(ctx context.Context, count int) (string, int, int, error) {
	if count <= 0 {
		count = w.cfg.DailyVideoCount
	}

	runDate, planned, err := w.planDaily(ctx, count)
	if err != nil {
		return "", 0, 0, err
	}

	succeeded := 0
	for _, pkg := range planned {
		if err := w.RunPackagePipeline(ctx, pkg.ID); err != nil {
			w.log.Error("package pipeline failed", "package", pkg.ID, "topic", pkg.Topic, "err", err)
			continue
		}
		succeeded++
	}

	w.log.Info("daily batch finished", "run_date", runDate, "planned", len(planned), "delivered", succeeded)
	return runDate, succeeded, len(planned), nil
}
