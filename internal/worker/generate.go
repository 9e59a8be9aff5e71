package worker

import (
	"context"
	"fmt"

	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
)

// handleGeneratePackage produces the copy set for one package (hook,
// caption, hashtags, CTA, voiceover script), assigns a voice persona, and
// chains into rendering. The generator cascades providers and bottoms out
// on templates, so this job only fails on database errors.
func (w *Worker) handleGeneratePackage(ctx context.Context, job *queue.Job) error {
	if job.PackageID == nil {
		return fmt.Errorf("package ID missing")
	}

	pkg, err := w.db.GetPackage(ctx, *job.PackageID)
	if err != nil {
		return fmt.Errorf("failed to get package: %w", err)
	}

	if err := w.generatePackage(ctx, pkg); err != nil {
		w.db.UpdatePackageError(ctx, pkg.ID, err.Error())
		return err
	}

	return w.enqueueNext(ctx, pkg.ID, "render_video", w.queue.EnqueueRenderVideo)
}

func (w *Worker) generatePackage(ctx context.Context, pkg *models.ContentPackage) error {
	if err := w.db.UpdatePackageStatus(ctx, pkg.ID, models.PackageStatusGenerating); err != nil {
		return fmt.Errorf("failed to update package status: %w", err)
	}

	rng := packageRNG(pkg.ID)

	content, err := w.gen.GeneratePackage(ctx, pkg.Topic, pkg.Occasion, pkg.Platform, rng)
	if err != nil {
		return fmt.Errorf("package generation failed: %w", err)
	}

	// A persona named on the create request wins; otherwise draw from the
	// catalog so the daily batch varies voices.
	persona := services.PickPersona(rng.Int63())
	if pkg.VoicePersona != nil && *pkg.VoicePersona != "" {
		persona = services.PersonaByName(*pkg.VoicePersona)
	}

	pkg.Hook = strPtr(content.Hook)
	pkg.Caption = strPtr(content.Caption)
	pkg.Hashtags = models.StringList(content.Hashtags)
	pkg.CTA = strPtr(content.CTA)
	pkg.VoiceoverScript = strPtr(content.VoiceoverScript)
	pkg.VoicePersona = strPtr(persona.Name)
	pkg.Status = models.PackageStatusRendering

	if err := w.db.UpdatePackageContent(ctx, pkg); err != nil {
		return fmt.Errorf("failed to save package content: %w", err)
	}

	w.log.Info("package copy ready",
		"package", pkg.ID, "provider", content.Provider, "persona", persona.Name)
	return nil
}
