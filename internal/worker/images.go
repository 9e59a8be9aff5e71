package worker

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
)

// handleGenerateImageSet produces one branded image per requested spec.
// Individual specs may fail; the set succeeds if at least one image lands.
func (w *Worker) handleGenerateImageSet(ctx context.Context, job *queue.Job) error {
	rawID, _ := job.Data["image_set_id"].(string)
	setID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid image set ID %q: %w", rawID, err)
	}

	set, err := w.db.GetImageSet(ctx, setID)
	if err != nil {
		return fmt.Errorf("failed to get image set: %w", err)
	}

	if err := w.db.UpdateImageSetStatus(ctx, set.ID, "generating"); err != nil {
		return fmt.Errorf("failed to update image set status: %w", err)
	}

	if err := w.generateImageSet(ctx, set, requestedSpecs(job.Data["specs"])); err != nil {
		w.db.UpdateImageSetError(ctx, set.ID, err.Error())
		return err
	}
	return nil
}

func (w *Worker) generateImageSet(ctx context.Context, set *models.ImageSet, specs []services.ImageSpec) error {
	rng := packageRNG(set.ID)

	var used []interface{}
	var preview []byte
	for _, spec := range specs {
		raw, provider, err := w.photos.FetchImage(ctx, set.Topic, spec, rng)
		if err != nil {
			w.log.Warn("image fetch failed", "set", set.ID, "spec", spec.Name, "err", err)
			continue
		}

		processed, err := w.photos.ProcessForSpec(raw, spec)
		if err != nil {
			w.log.Warn("image processing failed", "set", set.ID, "spec", spec.Name, "err", err)
			continue
		}

		storagePath := w.storage.GenerateStoragePath(set.ID, spec.Name+".jpg")
		if err := w.uploadWithLimit(ctx, "image "+spec.Name, func() error {
			return w.storage.Upload(ctx, storagePath, processed, "image/jpeg")
		}); err != nil {
			w.log.Warn("image upload failed", "set", set.ID, "spec", spec.Name, "err", err)
			continue
		}

		asset := &models.Asset{
			ID:            uuid.New(),
			ImageSetID:    &set.ID,
			Type:          models.AssetTypeImage,
			StorageBucket: w.storage.Bucket,
			StoragePath:   storagePath,
			ContentType:   strPtr("image/jpeg"),
			ByteSize:      int64Ptr(int64(len(processed))),
		}
		if err := w.db.CreateAsset(ctx, asset); err != nil {
			w.log.Warn("image asset record failed", "set", set.ID, "spec", spec.Name, "err", err)
			continue
		}

		w.log.Info("image generated", "set", set.ID, "spec", spec.Name, "provider", provider)
		used = append(used, spec.Name)
		if preview == nil {
			preview = processed
		}
	}

	if len(used) == 0 {
		return fmt.Errorf("no images produced for any of %d specs", len(specs))
	}

	if err := w.db.FinishImageSet(ctx, set.ID, models.JSONB{"specs": used}); err != nil {
		return fmt.Errorf("failed to finish image set: %w", err)
	}

	w.log.Info("image set ready", "set", set.ID, "topic", set.Topic, "images", len(used))
	w.previewImageSet(ctx, set, preview, len(used))
	return nil
}

// previewImageSet drops the set's lead image into the operator chat so
// the result can be eyeballed without opening the bucket.
func (w *Worker) previewImageSet(ctx context.Context, set *models.ImageSet, data []byte, count int) {
	if len(data) == 0 {
		return
	}

	path := w.ffmpeg.CreateTempFile(fmt.Sprintf("imgset_%s.jpg", set.ID.String()[:8]))
	defer w.ffmpeg.Cleanup(path)
	if err := w.photos.SaveImage(path, data); err != nil {
		w.log.Warn("image preview staging failed", "set", set.ID, "err", err)
		return
	}

	caption := fmt.Sprintf("🖼 <b>Image set ready</b>\n%s · %d images", html.EscapeString(set.Topic), count)
	if err := w.telegram.SendPhoto(ctx, path, caption); err != nil {
		w.log.Warn("image preview send failed", "set", set.ID, "err", err)
	}
}

// requestedSpecs resolves the job payload's spec names, dropping unknown
// ones. An empty or missing list means every spec.
func requestedSpecs(raw interface{}) []services.ImageSpec {
	names, ok := raw.([]interface{})
	if !ok || len(names) == 0 {
		return services.ImageSpecs
	}

	var specs []services.ImageSpec
	for _, n := range names {
		name, ok := n.(string)
		if !ok {
			continue
		}
		if spec, ok := services.SpecByName(name); ok {
			specs = append(specs, spec)
		}
	}
	if len(specs) == 0 {
		return services.ImageSpecs
	}
	return specs
}
