package services

import (
	"testing"

	"github.com/giftloop/megaphone/internal/models"
)

func TestClassifyStyle(t *testing.T) {
	cases := []struct {
		name     string
		vicinity string
		want     models.BusinessStyle
	}{
		{"Luxe Couture Bridal", "The Grand Arcade", models.StyleLuxury},
		{"The Old Barn", "Farm Lane, Cotswolds", models.StyleRustic},
		{"Studio North", "Urban Quarter", models.StyleModern},
		{"Heritage Jewellers", "Classic Row", models.StyleTraditional},
		{"Green Stem Florist", "Organic Market", models.StyleEco},
		// No keyword hits defaults to traditional
		{"Smiths", "High Street", models.StyleTraditional},
	}

	for _, c := range cases {
		if got := ClassifyStyle(c.name, c.vicinity); got != c.want {
			t.Errorf("ClassifyStyle(%q, %q) = %q, want %q", c.name, c.vicinity, got, c.want)
		}
	}
}

func TestClassifyStyleMostHitsWins(t *testing.T) {
	// One luxury hit against two rustic hits
	got := ClassifyStyle("Boutique Barn", "Farm Road")
	if got != models.StyleRustic {
		t.Errorf("expected rustic to win on hit count, got %q", got)
	}
}

func TestCategoryKeyword(t *testing.T) {
	if got := CategoryKeyword("wedding_venue"); got != "wedding venue" {
		t.Errorf("got %q", got)
	}
	if got := CategoryKeyword("florist"); got != "florist" {
		t.Errorf("got %q", got)
	}
}

func TestLeadFromPlace(t *testing.T) {
	p := PlaceResult{
		PlaceID:          "place123",
		Name:             "Green Stem Florist",
		Vicinity:         "12 Organic Market",
		Rating:           4.6,
		UserRatingsTotal: 88,
	}

	lead := LeadFromPlace(p, "florist")

	if lead.Name != "Green Stem Florist" || lead.Category != "florist" {
		t.Errorf("basic fields wrong: %+v", lead)
	}
	if lead.Style != models.StyleEco {
		t.Errorf("expected eco style, got %q", lead.Style)
	}
	if lead.Status != models.LeadStatusNew {
		t.Errorf("expected new status, got %q", lead.Status)
	}
	if lead.Rating == nil || *lead.Rating != 4.6 {
		t.Error("rating not carried over")
	}
	if lead.UserRatingsTotal == nil || *lead.UserRatingsTotal != 88 {
		t.Error("ratings total not carried over")
	}
}

func TestLeadFromPlaceOmitsZeroValues(t *testing.T) {
	lead := LeadFromPlace(PlaceResult{PlaceID: "p1", Name: "Smiths"}, "gift_shop")

	if lead.Address != nil {
		t.Error("expected nil address for empty vicinity")
	}
	if lead.Rating != nil {
		t.Error("expected nil rating for unrated place")
	}
}
