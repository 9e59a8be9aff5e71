package distribution

import (
	"strings"
	"testing"

	"github.com/giftloop/megaphone/internal/models"
)

func TestBuildDigestMessage(t *testing.T) {
	d := &Digest{
		RunDate:         "2026-08-23",
		ArticleTitle:    "50 Personalised Birthday Gifts They'll Love",
		Tier1Actions:    []string{"medium: published", "pinterest: pinned"},
		RepliesQueued:   2,
		EmailsDrafted:   3,
		MumsnetFindings: 4,
		Counts: map[models.Tier]int{
			models.TierAutoSafe: 2,
			models.TierSemiAuto: 2,
		},
		TopOpportunities: []models.Opportunity{
			{Title: "What to get granny?", URL: "https://example.com/t/1", Score: 0.9, DangerLevel: 1},
		},
		MumsnetEngageable: []models.Opportunity{
			{Title: "Gift ideas for a new grandad", URL: "https://example.com/t/2", Score: 0.8, DangerLevel: 1},
		},
	}

	msg := BuildDigestMessage(d)

	if !strings.Contains(msg, "2026-08-23") {
		t.Error("run date missing")
	}
	if !strings.Contains(msg, "medium: published") {
		t.Error("tier-1 action line missing")
	}
	if !strings.Contains(msg, "Tier 1 (auto-safe): 2 actions") {
		t.Errorf("tier count line missing: %q", msg)
	}
	if !strings.Contains(msg, "Emails drafted: 3") {
		t.Error("email count missing")
	}
	if !strings.Contains(msg, "[0.90 | danger 1]") {
		t.Errorf("opportunity line missing: %q", msg)
	}
	if !strings.Contains(msg, "https://example.com/t/1") {
		t.Error("opportunity URL missing")
	}
	if !strings.Contains(msg, "worth a personal reply") {
		t.Errorf("mumsnet engage section missing: %q", msg)
	}
	if !strings.Contains(msg, "https://example.com/t/2") {
		t.Error("mumsnet thread URL missing")
	}
}

func TestBuildDigestMessageEmptyRun(t *testing.T) {
	d := &Digest{
		RunDate: "2026-08-23",
		Counts:  map[models.Tier]int{},
	}

	msg := BuildDigestMessage(d)

	if strings.Contains(msg, "Top opportunities") {
		t.Error("opportunity section rendered with no opportunities")
	}
	if strings.Contains(msg, "personal reply") {
		t.Error("engage section rendered with no threads")
	}
	if !strings.Contains(msg, "Tier 4 (monitor-only): 0 actions") {
		t.Errorf("expected zero counts to still render: %q", msg)
	}
}

func TestEngageList(t *testing.T) {
	opportunities := []models.Opportunity{
		{Source: models.OpportunitySourceMumsnet, Title: "safe and relevant", Score: 0.8, DangerLevel: 1},
		{Source: models.OpportunitySourceMumsnet, Title: "too dangerous", Score: 0.9, DangerLevel: 4},
		{Source: models.OpportunitySourceMumsnet, Title: "not relevant enough", Score: 0.5, DangerLevel: 0},
		{Source: models.OpportunitySourceReddit, Title: "wrong source", Score: 0.9, DangerLevel: 0},
	}

	out := EngageList(opportunities)

	if len(out) != 1 {
		t.Fatalf("expected exactly one engageable thread, got %d", len(out))
	}
	if out[0].Title != "safe and relevant" {
		t.Errorf("wrong thread selected: %q", out[0].Title)
	}
}

func TestEngageListRanksBestFirst(t *testing.T) {
	opportunities := []models.Opportunity{
		{Source: models.OpportunitySourceMumsnet, Title: "decent", Score: 0.7, DangerLevel: 2},
		{Source: models.OpportunitySourceMumsnet, Title: "best", Score: 0.95, DangerLevel: 0},
		{Source: models.OpportunitySourceMumsnet, Title: "same score, riskier", Score: 0.7, DangerLevel: 2},
		{Source: models.OpportunitySourceMumsnet, Title: "same score, safer", Score: 0.7, DangerLevel: 1},
	}

	out := EngageList(opportunities)

	if len(out) != 4 {
		t.Fatalf("expected all four threads to pass, got %d", len(out))
	}
	want := []string{"best", "same score, safer", "decent", "same score, riskier"}
	for i, title := range want {
		if out[i].Title != title {
			t.Errorf("position %d: expected %q, got %q", i, title, out[i].Title)
		}
	}
}
