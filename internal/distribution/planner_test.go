package distribution

import (
	"testing"

	"github.com/giftloop/megaphone/internal/models"
)

func TestRoute(t *testing.T) {
	cases := []struct {
		contentType string
		platform    string
		wantTier    models.Tier
		wantAction  models.DistributionActionType
	}{
		{"article", "medium", models.TierAutoSafe, models.ActionPublished},
		{"article", "pinterest", models.TierAutoSafe, models.ActionPublished},
		{"image", "pinterest", models.TierAutoSafe, models.ActionPublished},
		{"reply", "reddit", models.TierSemiAuto, models.ActionQueuedForApproval},
		{"email", "email", models.TierApproval, models.ActionDrafted},
		{"intel", "mumsnet", models.TierMonitorOnly, models.ActionMonitored},
	}

	for _, c := range cases {
		tier, action := Route(c.contentType, c.platform)
		if tier != c.wantTier || action != c.wantAction {
			t.Errorf("Route(%q, %q) = (%d, %q), want (%d, %q)",
				c.contentType, c.platform, tier, action, c.wantTier, c.wantAction)
		}
	}
}

func TestRouteNeverEscalates(t *testing.T) {
	// Unknown platform routes to skip
	if _, action := Route("article", "myspace"); action != models.ActionSkipped {
		t.Errorf("unknown platform routed to %q", action)
	}

	// Content-type mismatch on a known platform also routes to skip
	if _, action := Route("video", "medium"); action != models.ActionSkipped {
		t.Errorf("mismatched content routed to %q", action)
	}

	// A reply must never reach a tier-1 publisher
	if _, action := Route("reply", "medium"); action == models.ActionPublished {
		t.Error("reply routed to publish on medium")
	}
}

func TestPlatformsByTier(t *testing.T) {
	tier1 := Platforms(models.TierAutoSafe)
	if len(tier1) != 3 {
		t.Errorf("expected 3 auto-safe platforms, got %v", tier1)
	}

	monitorOnly := Platforms(models.TierMonitorOnly)
	if len(monitorOnly) != 1 || monitorOnly[0] != "mumsnet" {
		t.Errorf("expected mumsnet alone at tier 4, got %v", monitorOnly)
	}
}

func TestTierName(t *testing.T) {
	if got := TierName(models.TierAutoSafe); got != "auto-safe" {
		t.Errorf("got %q", got)
	}
	if got := TierName(models.Tier(9)); got != "unknown" {
		t.Errorf("expected unknown for bogus tier, got %q", got)
	}
}
