package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/queue"
	"github.com/giftloop/megaphone/internal/services"
)

// handleScanLeads sweeps Google Places around the configured point and
// upserts anything new into the lead book. A failed category is logged
// and the rest still run; the job fails only when every category failed.
func (w *Worker) handleScanLeads(ctx context.Context, job *queue.Job) error {
	categories := requestedCategories(job.Data["categories"])

	radius := w.cfg.OutreachRadiusMeter
	if raw, ok := job.Data["radius"].(float64); ok && int(raw) > 0 {
		radius = int(raw)
	}

	var newLeads, seen, failed int
	for _, category := range categories {
		results, err := w.places.NearbySearch(ctx, w.cfg.OutreachLat, w.cfg.OutreachLng, radius, services.CategoryKeyword(category))
		if err != nil {
			w.log.Warn("places search failed", "category", category, "err", err)
			failed++
			continue
		}

		for _, place := range results {
			lead := services.LeadFromPlace(place, category)
			lead.ID = uuid.New()
			inserted, err := w.db.UpsertLead(ctx, lead)
			if err != nil {
				w.log.Warn("lead upsert failed", "place", place.Name, "err", err)
				continue
			}
			if inserted {
				newLeads++
			} else {
				seen++
			}
		}
	}

	if failed == len(categories) {
		return fmt.Errorf("places search failed for all %d categories", len(categories))
	}

	w.log.Info("lead scan complete",
		"categories", len(categories),
		"radius_m", radius,
		"new", newLeads,
		"already_known", seen)
	return nil
}

// requestedCategories resolves the payload's category list, falling back
// to the full target set.
func requestedCategories(raw interface{}) []string {
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return services.TargetCategories
	}

	var categories []string
	for _, c := range list {
		if name, ok := c.(string); ok && name != "" {
			categories = append(categories, name)
		}
	}
	if len(categories) == 0 {
		return services.TargetCategories
	}
	return categories
}
