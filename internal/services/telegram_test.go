package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/models"
)

func TestBuildPackageMessage(t *testing.T) {
	hook := "The gift they'll actually keep"
	caption := "Three picks for her 30th <3"
	cta := "Full guide at giftloop.example"

	pkg := &models.ContentPackage{
		ID:       uuid.New(),
		Topic:    "30th birthday gifts for her",
		Occasion: models.OccasionBirthday,
		Platform: models.PlatformTikTok,
		Hook:     &hook,
		Caption:  &caption,
		Hashtags: models.StringList{"#giftideas", "#birthdaygift"},
		CTA:      &cta,
	}

	msg := BuildPackageMessage(pkg)

	if !strings.Contains(msg, "30th birthday gifts for her") {
		t.Errorf("topic missing: %q", msg)
	}
	if !strings.Contains(msg, "<pre>") || !strings.Contains(msg, "</pre>") {
		t.Error("copy block not wrapped in <pre>")
	}
	if !strings.Contains(msg, "#giftideas #birthdaygift") {
		t.Errorf("hashtags missing: %q", msg)
	}
	// Raw angle brackets in the caption must be escaped for HTML mode
	if strings.Contains(msg, "<3") {
		t.Error("caption not HTML-escaped")
	}
	if !strings.Contains(msg, "&lt;3") {
		t.Error("expected escaped caption text")
	}
	if !strings.Contains(msg, "TikTok:") {
		t.Error("platform instructions missing")
	}
}

func TestBuildPackageMessageSkipsEmptyFields(t *testing.T) {
	pkg := &models.ContentPackage{
		ID:       uuid.New(),
		Topic:    "gifts for gardeners",
		Occasion: models.OccasionGeneral,
		Platform: models.PlatformYouTube,
	}

	msg := BuildPackageMessage(pkg)

	if !strings.Contains(msg, "<pre>") {
		t.Error("expected pre block even when copy is empty")
	}
	if strings.Contains(msg, "\n\n\n") {
		t.Errorf("expected no triple blank lines, got %q", msg)
	}
}

func TestPlatformInstructions(t *testing.T) {
	for _, p := range models.Platforms {
		instr := PlatformInstructions(p)
		if instr == "" {
			t.Errorf("no instructions for %q", p)
		}
	}

	if got := PlatformInstructions(models.Platform("myspace")); !strings.Contains(got, "Upload the video") {
		t.Errorf("expected generic fallback, got %q", got)
	}
}
