package worker

import (
	"context"
	"fmt"

	"github.com/giftloop/megaphone/internal/queue"
)

// handleDistributeDaily runs the full distribution workflow: article
// syndication, reply drafting, outreach emails, monitors, and the
// operator digest.
func (w *Worker) handleDistributeDaily(ctx context.Context, job *queue.Job) error {
	digest, err := w.workflow.RunDaily(ctx)
	if err != nil {
		return fmt.Errorf("distribution run failed: %w", err)
	}

	w.log.Info("distribution run complete",
		"tier1_actions", digest.Tier1Actions,
		"replies_queued", digest.RepliesQueued,
		"emails_drafted", digest.EmailsDrafted,
		"mumsnet_findings", digest.MumsnetFindings)
	return nil
}

// handleScanOpportunities runs the monitors alone, outside the daily
// workflow, for ad-hoc sweeps.
func (w *Worker) handleScanOpportunities(ctx context.Context, job *queue.Job) error {
	digest, err := w.workflow.ScanOpportunities(ctx)
	if err != nil {
		return fmt.Errorf("opportunity sweep failed: %w", err)
	}

	w.log.Info("opportunity sweep complete",
		"replies_queued", digest.RepliesQueued,
		"mumsnet_findings", digest.MumsnetFindings)
	return nil
}
