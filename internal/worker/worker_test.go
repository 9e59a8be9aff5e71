package worker

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/services"
)

func TestOccasionForCategory(t *testing.T) {
	cases := []struct {
		category string
		want     models.Occasion
	}{
		{"wedding", models.OccasionWedding},
		{"Christmas", models.OccasionChristmas},
		{"birthday", models.OccasionBirthday},
		{"anniversary", models.OccasionAnniversary},
		{"mothers day", models.OccasionGeneral},
		{"personalised", models.OccasionGeneral},
		{"", models.OccasionGeneral},
	}

	for _, c := range cases {
		if got := occasionForCategory(c.category); got != c.want {
			t.Errorf("occasionForCategory(%q) = %q, want %q", c.category, got, c.want)
		}
	}
}

func TestDiversityOrderFrontsEachCategory(t *testing.T) {
	topics := []models.Topic{
		{Title: "b1", Category: "birthday"},
		{Title: "b2", Category: "birthday"},
		{Title: "b3", Category: "birthday"},
		{Title: "w1", Category: "wedding"},
		{Title: "c1", Category: "christmas"},
	}

	ordered := diversityOrder(topics, rand.New(rand.NewSource(4)))

	if len(ordered) != len(topics) {
		t.Fatalf("expected %d topics back, got %d", len(topics), len(ordered))
	}

	// The first three entries cover all three categories
	seen := make(map[string]bool)
	for _, topic := range ordered[:3] {
		seen[topic.Category] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected one topic per category up front, got %v", ordered[:3])
	}
}

func TestDiversityOrderDeterministic(t *testing.T) {
	topics := []models.Topic{
		{Title: "a", Category: "birthday"},
		{Title: "b", Category: "wedding"},
		{Title: "c", Category: "christmas"},
		{Title: "d", Category: "birthday"},
	}

	first := diversityOrder(topics, rand.New(rand.NewSource(17)))
	second := diversityOrder(topics, rand.New(rand.NewSource(17)))

	for i := range first {
		if first[i].Title != second[i].Title {
			t.Fatalf("same seed gave different order at %d: %q vs %q", i, first[i].Title, second[i].Title)
		}
	}
}

func TestPackageRNGDeterministic(t *testing.T) {
	id := uuid.New()

	a := packageRNG(id).Int63()
	b := packageRNG(id).Int63()
	if a != b {
		t.Error("same package ID seeded different sequences")
	}

	if packageRNG(uuid.New()).Int63() == a {
		t.Error("different package IDs produced the same first draw")
	}
}

func TestBuildRunSummary(t *testing.T) {
	pkgs := []models.ContentPackage{
		{Topic: "gifts for mum", Platform: models.PlatformTikTok, Status: models.PackageStatusDelivered},
		{Topic: "secret santa <£10", Platform: models.PlatformYouTube, Status: models.PackageStatusFailed},
	}

	msg := BuildRunSummary("2026-08-23", pkgs)

	if !strings.Contains(msg, "Daily run 2026-08-23 complete") {
		t.Errorf("header missing: %q", msg)
	}
	if !strings.Contains(msg, "Delivered: 1") || !strings.Contains(msg, "Failed: 1") {
		t.Errorf("counts missing: %q", msg)
	}
	if !strings.Contains(msg, "✅ gifts for mum (tiktok)") {
		t.Errorf("delivered line missing: %q", msg)
	}
	if !strings.Contains(msg, "❌") {
		t.Error("failed marker missing")
	}
	// HTML mode: raw angle brackets in topics must be escaped
	if strings.Contains(msg, "<£10") {
		t.Errorf("topic not escaped: %q", msg)
	}
}

func TestBuildRunSummaryAllDelivered(t *testing.T) {
	pkgs := []models.ContentPackage{
		{Topic: "a", Platform: models.PlatformTikTok, Status: models.PackageStatusDelivered},
	}

	msg := BuildRunSummary("2026-08-23", pkgs)
	if strings.Contains(msg, "Failed:") {
		t.Errorf("failed count rendered on a clean run: %q", msg)
	}
}

func TestRequestedSpecs(t *testing.T) {
	// Missing payload falls back to the full set
	if got := requestedSpecs(nil); len(got) != len(services.ImageSpecs) {
		t.Errorf("expected all specs for nil payload, got %d", len(got))
	}

	// Names round-trip from a decoded JSON payload
	got := requestedSpecs([]interface{}{"hero", "pinterest"})
	if len(got) != 2 || got[0].Name != "hero" || got[1].Name != "pinterest" {
		t.Errorf("unexpected specs: %v", got)
	}

	// Unknown names are dropped; all-unknown falls back to the full set
	got = requestedSpecs([]interface{}{"hero", "billboard"})
	if len(got) != 1 || got[0].Name != "hero" {
		t.Errorf("unknown spec not dropped: %v", got)
	}
	if got := requestedSpecs([]interface{}{"billboard"}); len(got) != len(services.ImageSpecs) {
		t.Errorf("expected fallback for all-unknown payload, got %d", len(got))
	}
}

func TestRequestedCategories(t *testing.T) {
	if got := requestedCategories(nil); len(got) != len(services.TargetCategories) {
		t.Errorf("expected all categories for nil payload, got %d", len(got))
	}

	got := requestedCategories([]interface{}{"florist", "gift_shop"})
	if len(got) != 2 || got[0] != "florist" {
		t.Errorf("unexpected categories: %v", got)
	}

	// Non-string entries are skipped
	got = requestedCategories([]interface{}{"florist", 42.0, ""})
	if len(got) != 1 {
		t.Errorf("expected only the string entry, got %v", got)
	}
}
