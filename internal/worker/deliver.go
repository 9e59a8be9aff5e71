package worker

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/queue"
)

// handleDeliverPackage hands the finished video to the operator chats
// and, once the whole daily run has settled, posts the batch summary.
func (w *Worker) handleDeliverPackage(ctx context.Context, job *queue.Job) error {
	if job.PackageID == nil {
		return fmt.Errorf("package ID missing")
	}

	pkg, err := w.db.GetPackage(ctx, *job.PackageID)
	if err != nil {
		return fmt.Errorf("failed to get package: %w", err)
	}

	return w.deliverPackage(ctx, pkg)
}

func (w *Worker) deliverPackage(ctx context.Context, pkg *models.ContentPackage) error {
	if pkg.VideoAssetID == nil {
		return fmt.Errorf("package %s has no rendered video", pkg.ID)
	}

	asset, err := w.db.GetAsset(ctx, *pkg.VideoAssetID)
	if err != nil {
		return fmt.Errorf("failed to get video asset: %w", err)
	}

	data, err := w.storage.Download(ctx, asset.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to download video: %w", err)
	}

	videoPath := w.ffmpeg.CreateTempFile(fmt.Sprintf("deliver_%s.mp4", pkg.ID.String()[:8]))
	defer w.ffmpeg.Cleanup(videoPath)
	if err := os.WriteFile(videoPath, data, 0644); err != nil {
		return fmt.Errorf("failed to stage video: %w", err)
	}

	if err := w.deliverToOperators(ctx, pkg, videoPath); err != nil {
		w.db.UpdatePackageError(ctx, pkg.ID, err.Error())
		return err
	}

	if err := w.db.UpdatePackageStatus(ctx, pkg.ID, models.PackageStatusDelivered); err != nil {
		return fmt.Errorf("failed to update package status: %w", err)
	}

	w.log.Info("package delivered", "package", pkg.ID, "topic", pkg.Topic)

	if pkg.RunDate != nil {
		w.maybeSendRunSummary(ctx, *pkg.RunDate)
	}
	return nil
}

// deliverToOperators fans the package out to every active operator chat.
// With no operators registered it goes to the configured default chat.
// One unreachable operator is a warning; all of them unreachable fails
// the job so it surfaces on the package.
func (w *Worker) deliverToOperators(ctx context.Context, pkg *models.ContentPackage, videoPath string) error {
	operators, err := w.db.ListActiveOperators(ctx)
	if err != nil {
		w.log.Warn("operator lookup failed, using default chat", "err", err)
		operators = nil
	}

	if len(operators) == 0 {
		return w.telegram.DeliverPackage(ctx, pkg, videoPath)
	}

	delivered := 0
	for _, op := range operators {
		if err := w.telegram.DeliverPackageTo(ctx, op.ChatID, pkg, videoPath); err != nil {
			w.log.Warn("delivery to operator failed", "operator", op.Name, "chat_id", op.ChatID, "err", err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("delivery failed for all %d operators", len(operators))
	}
	return nil
}

// maybeSendRunSummary posts the end-of-run digest once every package in
// the run has reached a terminal status. Only the last finisher sees the
// run settled, so the digest goes out exactly once.
func (w *Worker) maybeSendRunSummary(ctx context.Context, runDate string) {
	pkgs, err := w.db.ListRunPackages(ctx, runDate)
	if err != nil {
		w.log.Warn("run lookup failed, skipping summary", "run_date", runDate, "err", err)
		return
	}

	for _, p := range pkgs {
		if p.Status != models.PackageStatusDelivered && p.Status != models.PackageStatusFailed {
			return
		}
	}

	if err := w.telegram.SendMessage(ctx, BuildRunSummary(runDate, pkgs)); err != nil {
		w.log.Warn("run summary send failed", "run_date", runDate, "err", err)
	}
}

// BuildRunSummary formats the end-of-run digest for Telegram.
func BuildRunSummary(runDate string, pkgs []models.ContentPackage) string {
	var delivered, failed int
	for _, p := range pkgs {
		if p.Status == models.PackageStatusDelivered {
			delivered++
		} else {
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 <b>Daily run %s complete</b>\n", runDate)
	fmt.Fprintf(&b, "Delivered: %d", delivered)
	if failed > 0 {
		fmt.Fprintf(&b, " | Failed: %d", failed)
	}
	b.WriteString("\n\n")

	for _, p := range pkgs {
		mark := "✅"
		if p.Status != models.PackageStatusDelivered {
			mark = "❌"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", mark, html.EscapeString(p.Topic), p.Platform)
	}

	b.WriteString("\nPost within the next few hours for best reach.")
	return b.String()
}
