package services

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/giftloop/megaphone/internal/models"
)

func TestContainsForbiddenWord(t *testing.T) {
	word, found := ContainsForbiddenWord("BUY NOW while stocks last")
	if !found {
		t.Fatal("expected forbidden phrase to be found")
	}
	if word != "buy now" {
		t.Errorf("expected 'buy now', got %q", word)
	}

	if _, found := ContainsForbiddenWord("a thoughtful gift for mum"); found {
		t.Error("clean copy flagged as forbidden")
	}
}

func TestValidateDraft(t *testing.T) {
	good := packageDraft{
		Hook:            "The gift they'll actually keep",
		Caption:         "Handpicked ideas for her birthday.",
		VoiceoverScript: "Looking for birthday gifts? Here are three picks.",
	}
	if err := validateDraft(&good); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	noCaption := good
	noCaption.Caption = "   "
	if err := validateDraft(&noCaption); err == nil {
		t.Error("expected empty caption to be rejected")
	}

	noScript := good
	noScript.VoiceoverScript = ""
	if err := validateDraft(&noScript); err == nil {
		t.Error("expected empty voiceover to be rejected")
	}

	salesy := good
	salesy.Hook = "Guaranteed best price today"
	if err := validateDraft(&salesy); err == nil {
		t.Error("expected forbidden phrase to be rejected")
	}
}

func TestVoiceoverWordBudget(t *testing.T) {
	if got := VoiceoverWordBudget(15.0); got != 38 {
		t.Errorf("expected 38 words for 15s, got %d", got)
	}
	if got := VoiceoverWordBudget(10.0); got != 25 {
		t.Errorf("expected 25 words for 10s, got %d", got)
	}
}

func TestTrimToWords(t *testing.T) {
	short := "Three picks they will love."
	if got := trimToWords(short, 40); got != short {
		t.Errorf("short text changed: %q", got)
	}

	long := "First pick is great. Second pick is better. Third pick wins every single time without fail"
	got := trimToWords(long, 10)
	if len(strings.Fields(got)) > 10 {
		t.Errorf("expected at most 10 words, got %d: %q", len(strings.Fields(got)), got)
	}
	// The cut lands on the sentence end inside the budget
	if !strings.HasSuffix(got, ".") {
		t.Errorf("expected trimmed text to end a sentence, got %q", got)
	}
}

func TestTruncateCaption(t *testing.T) {
	short := "Gifts that land."
	if got := truncateCaption(short); got != short {
		t.Errorf("short caption changed: %q", got)
	}

	long := strings.Repeat("thoughtful gifts for every occasion ", 10)
	got := truncateCaption(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if utf8.RuneCountInString(got) > captionMaxChars+1 {
		t.Errorf("caption too long after truncation: %d runes", utf8.RuneCountInString(got))
	}
}

func TestBuildHashtags(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tags := BuildHashtags("personalised birthday gifts", models.OccasionBirthday, models.PlatformTikTok, []string{"golfgifts"}, rng)

	if len(tags) == 0 || len(tags) > hashtagCount {
		t.Fatalf("expected 1..%d tags, got %d", hashtagCount, len(tags))
	}

	seen := make(map[string]bool)
	for _, tag := range tags {
		if !strings.HasPrefix(tag, "#") {
			t.Errorf("tag %q missing # prefix", tag)
		}
		if seen[tag] {
			t.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = true
	}

	// Same seed, same tags
	again := BuildHashtags("personalised birthday gifts", models.OccasionBirthday, models.PlatformTikTok, []string{"golfgifts"}, rand.New(rand.NewSource(7)))
	if strings.Join(tags, " ") != strings.Join(again, " ") {
		t.Error("expected identical tags for identical seed")
	}
}

func TestNormalizeHashtag(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"#Gift Ideas!", "giftideas"},
		{"  birthday  ", "birthday"},
		{"ab", ""},
		{"GIFTSFORHIM", "giftsforhim"},
		{strings.Repeat("x", 30), ""},
	}
	for _, c := range cases {
		if got := normalizeHashtag(c.in); got != c.want {
			t.Errorf("normalizeHashtag(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPickCTA(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cta := PickCTA(models.OccasionChristmas, "giftloop.example", rng)
	if !strings.Contains(cta, "giftloop.example") {
		t.Errorf("expected brand URL in CTA, got %q", cta)
	}

	// Unknown occasions fall back to the general templates
	cta = PickCTA(models.Occasion("halloween"), "giftloop.example", rng)
	if !strings.Contains(cta, "giftloop.example") {
		t.Errorf("expected fallback CTA to carry brand URL, got %q", cta)
	}
}

func TestFallbackHookStaysWithinWordLimit(t *testing.T) {
	for occasion, hooks := range fallbackHooks {
		for _, hook := range hooks {
			if words := len(strings.Fields(hook)); words > hookMaxWords {
				t.Errorf("hook %q for %s has %d words, limit is %d", hook, occasion, words, hookMaxWords)
			}
		}
	}

	rng := rand.New(rand.NewSource(3))
	if hook := FallbackHook(models.Occasion("halloween"), rng); hook == "" {
		t.Error("expected a general hook for unknown occasion")
	}
}

func TestFallbackPackage(t *testing.T) {
	gen := NewGenerator(nil, "Giftloop", "giftloop.example")
	rng := rand.New(rand.NewSource(11))

	content := gen.FallbackPackage("personalised birthday gifts", models.OccasionBirthday, models.PlatformTikTok, rng)

	if content.Provider != "template" {
		t.Errorf("expected template provider, got %q", content.Provider)
	}
	if content.Hook == "" {
		t.Error("expected non-empty hook")
	}
	if len(content.Hashtags) == 0 {
		t.Error("expected hashtags")
	}
	if !strings.Contains(content.CTA, "giftloop.example") {
		t.Errorf("expected CTA to carry brand URL, got %q", content.CTA)
	}

	budget := VoiceoverWordBudget(voiceoverTargetSeconds)
	if words := len(strings.Fields(content.VoiceoverScript)); words > budget {
		t.Errorf("voiceover has %d words, budget is %d", words, budget)
	}
	if _, found := ContainsForbiddenWord(content.Caption); found {
		t.Error("template caption contains a forbidden phrase")
	}
}

func TestUpperFirst(t *testing.T) {
	if got := upperFirst("gifts for him"); got != "Gifts for him" {
		t.Errorf("got %q", got)
	}
	if got := upperFirst(""); got != "" {
		t.Errorf("expected empty stays empty, got %q", got)
	}
}
