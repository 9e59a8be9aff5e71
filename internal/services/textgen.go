package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	charm "github.com/charmbracelet/log"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// Text generation cascade
// Package copy is produced by the first provider that returns a valid draft
// (OpenAI, then Gemini). When every provider fails or produces copy that
// breaks the content rules, the template fallback steps in so a daily run
// never dies for lack of a caption.
// ---------------------------------------------------------------------------

const (
	hookMaxWords    = 8
	captionMaxChars = 150
	hashtagCount    = 10

	// Voiceover length is driven by the target video length at a spoken
	// rate of ~2.5 words per second.
	voiceoverTargetSeconds = 15.0
	wordsPerSecond         = 2.5
)

// TextProvider is implemented by every chat-capable text backend.
type TextProvider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
	CompleteJSON(ctx context.Context, system, user string, out any) error
}

// PackageContent is the validated copy for one content package.
type PackageContent struct {
	Hook            string
	Caption         string
	Hashtags        []string
	CTA             string
	VoiceoverScript string
	Provider        string // which provider produced it ("openai", "gemini", "template")
}

// packageDraft is the JSON shape providers are asked to return.
type packageDraft struct {
	Hook            string   `json:"hook"`
	Caption         string   `json:"caption"`
	VoiceoverScript string   `json:"voiceover_script"`
	ExtraHashtags   []string `json:"extra_hashtags"`
}

type Generator struct {
	providers []TextProvider
	brandName string
	brandURL  string
	log       *charm.Logger
}

func NewGenerator(providers []TextProvider, brandName, brandURL string) *Generator {
	return &Generator{
		providers: providers,
		brandName: brandName,
		brandURL:  brandURL,
		log:       logging.Component("textgen"),
	}
}

// CompleteJSON runs the prompt through the provider cascade, returning the
// name of the provider that answered. Callers get provider failover for free.
func (g *Generator) CompleteJSON(ctx context.Context, system, user string, out any) (string, error) {
	var lastErr error
	for _, p := range g.providers {
		if err := p.CompleteJSON(ctx, system, user, out); err != nil {
			g.log.Warn("provider failed, trying next", "provider", p.Name(), "err", err)
			lastErr = err
			continue
		}
		return p.Name(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no text providers configured")
	}
	return "", fmt.Errorf("all text providers failed: %w", lastErr)
}

// Complete is the plain-text variant of CompleteJSON.
func (g *Generator) Complete(ctx context.Context, system, user string) (string, string, error) {
	var lastErr error
	for _, p := range g.providers {
		text, err := p.Complete(ctx, system, user)
		if err != nil {
			g.log.Warn("provider failed, trying next", "provider", p.Name(), "err", err)
			lastErr = err
			continue
		}
		return text, p.Name(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no text providers configured")
	}
	return "", "", fmt.Errorf("all text providers failed: %w", lastErr)
}

// GeneratePackage produces the full copy set for one package. rng drives
// hashtag shuffling and CTA choice so a rerun of the same daily seed
// reproduces the same output.
func (g *Generator) GeneratePackage(ctx context.Context, topic string, occasion models.Occasion, platform models.Platform, rng *rand.Rand) (*PackageContent, error) {
	system := g.buildPackageSystemPrompt(occasion, platform)
	user := buildPackageUserPrompt(topic, occasion)

	for _, p := range g.providers {
		// A rejected draft gets one regeneration on the same provider; an
		// API error moves straight to the next provider.
		for attempt := 0; attempt < 2; attempt++ {
			var draft packageDraft
			if err := p.CompleteJSON(ctx, system, user, &draft); err != nil {
				g.log.Warn("package draft failed, trying next provider", "provider", p.Name(), "topic", topic, "err", err)
				break
			}

			if err := validateDraft(&draft); err != nil {
				g.log.Warn("package draft rejected", "provider", p.Name(), "topic", topic, "attempt", attempt+1, "reason", err)
				continue
			}

			content := g.assemblePackage(&draft, topic, occasion, platform, rng)
			content.Provider = p.Name()
			g.log.Info("package copy generated", "provider", p.Name(), "topic", topic, "hook", content.Hook)
			return content, nil
		}
	}

	// Every provider failed or produced unusable copy — fall back to templates
	g.log.Warn("falling back to template copy", "topic", topic)
	return g.FallbackPackage(topic, occasion, platform, rng), nil
}

// assemblePackage normalizes a valid draft into final package copy. A hook
// that is empty or over the word limit is replaced from the curated list
// rather than sinking the whole draft.
func (g *Generator) assemblePackage(draft *packageDraft, topic string, occasion models.Occasion, platform models.Platform, rng *rand.Rand) *PackageContent {
	hook := strings.TrimSpace(draft.Hook)
	if hook == "" || len(strings.Fields(hook)) > hookMaxWords {
		hook = FallbackHook(occasion, rng)
	}
	caption := truncateCaption(strings.TrimSpace(draft.Caption))

	budget := VoiceoverWordBudget(voiceoverTargetSeconds)
	voiceover := trimToWords(strings.TrimSpace(draft.VoiceoverScript), budget)

	return &PackageContent{
		Hook:            hook,
		Caption:         caption,
		Hashtags:        BuildHashtags(topic, occasion, platform, draft.ExtraHashtags, rng),
		CTA:             PickCTA(occasion, g.brandURL, rng),
		VoiceoverScript: voiceover,
	}
}

// FallbackPackage builds package copy entirely from templates. It never
// fails, which is what makes it the cascade's floor.
func (g *Generator) FallbackPackage(topic string, occasion models.Occasion, platform models.Platform, rng *rand.Rand) *PackageContent {
	hook := FallbackHook(occasion, rng)

	caption := truncateCaption(fmt.Sprintf("%s — handpicked ideas that actually land. Full guide on %s.", upperFirst(topic), g.brandName))

	voiceover := fmt.Sprintf(
		"Looking for %s? Here are picks people actually keep. Each one is tested, loved, and under budget. Save this for later, and check the link for the full guide.",
		strings.ToLower(topic))
	voiceover = trimToWords(voiceover, VoiceoverWordBudget(voiceoverTargetSeconds))

	return &PackageContent{
		Hook:            hook,
		Caption:         caption,
		Hashtags:        BuildHashtags(topic, occasion, platform, nil, rng),
		CTA:             PickCTA(occasion, g.brandURL, rng),
		VoiceoverScript: voiceover,
		Provider:        "template",
	}
}

func (g *Generator) buildPackageSystemPrompt(occasion models.Occasion, platform models.Platform) string {
	return fmt.Sprintf(`You write short-form video copy for %s, a gift discovery brand.
The video is a %s post for the %q gifting occasion.

Respond with a JSON object containing exactly these fields:
- "hook": an on-screen opening line, at most %d words, that stops the scroll. No emoji. No clickbait cliches like "you won't believe".
- "caption": the post caption, at most %d characters, conversational and warm. No hashtags inside the caption.
- "voiceover_script": narration of roughly %d words (about %.0f seconds read aloud). Short punchy sentences. Written to be listened to, not read. Use contractions.
- "extra_hashtags": up to 3 niche hashtags (without the # sign) specific to the topic.

Content rules, strictly enforced:
- Never promise outcomes ("guaranteed", "miracle", "best ever").
- No sales-pressure phrases: "buy now", "click here", "discount", "cheap", "best price".
- No pricing claims, no medical claims, no "free".
- British English spelling.`,
		g.brandName, platform, occasion, hookMaxWords, captionMaxChars,
		VoiceoverWordBudget(voiceoverTargetSeconds), voiceoverTargetSeconds)
}

func buildPackageUserPrompt(topic string, occasion models.Occasion) string {
	return fmt.Sprintf("Write the copy for a video about: %q (occasion: %s)", topic, occasion)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// forbiddenWords are phrases that trip platform ad policies, read as
// sales pressure, or over-promise. Any draft containing one is rejected
// before it reaches a caption.
var forbiddenWords = []string{
	"buy now",
	"click here",
	"discount",
	"cheap",
	"best price",
	"guaranteed",
	"guarantee",
	"miracle",
	"cure",
	"best ever",
	"get rich",
	"risk-free",
	"free money",
	"limited time only",
}

// ContainsForbiddenWord reports the first banned phrase found in s.
func ContainsForbiddenWord(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, w := range forbiddenWords {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}

func validateDraft(d *packageDraft) error {
	if strings.TrimSpace(d.Caption) == "" {
		return fmt.Errorf("empty caption")
	}
	if strings.TrimSpace(d.VoiceoverScript) == "" {
		return fmt.Errorf("empty voiceover script")
	}
	for _, field := range []string{d.Hook, d.Caption, d.VoiceoverScript} {
		if word, found := ContainsForbiddenWord(field); found {
			return fmt.Errorf("contains forbidden phrase %q", word)
		}
	}
	return nil
}

// VoiceoverWordBudget converts a target duration into a word count at
// narration pace.
func VoiceoverWordBudget(seconds float64) int {
	return int(math.Round(seconds * wordsPerSecond))
}

// trimToWords cuts text to at most budget words, preferring to cut at a
// sentence boundary so the narration doesn't stop mid-thought.
func trimToWords(text string, budget int) string {
	words := strings.Fields(text)
	if len(words) <= budget {
		return text
	}

	trimmed := strings.Join(words[:budget], " ")

	// Back up to the last sentence end if one exists reasonably close
	if idx := strings.LastIndexAny(trimmed, ".!?"); idx > len(trimmed)/2 {
		return trimmed[:idx+1]
	}
	return trimmed + "."
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncateCaption(caption string) string {
	if len(caption) <= captionMaxChars {
		return caption
	}
	cut := caption[:captionMaxChars]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, ",;:") + "…"
}

// ---------------------------------------------------------------------------
// Hashtags and CTAs
// ---------------------------------------------------------------------------

var baseHashtags = []string{
	"giftideas", "giftguide", "giftsforher", "giftsforhim", "giftinspiration", "thoughtfulgifts",
}

var occasionHashtags = map[models.Occasion][]string{
	models.OccasionGeneral:     {"gifting", "presentideas"},
	models.OccasionBirthday:    {"birthdaygift", "birthdaygiftideas"},
	models.OccasionWedding:     {"weddinggift", "weddinggiftideas"},
	models.OccasionAnniversary: {"anniversarygift", "anniversaryideas"},
	models.OccasionChristmas:   {"christmasgift", "stockingfillers"},
}

var platformHashtags = map[models.Platform][]string{
	models.PlatformTikTok:    {"tiktokmademebuyit", "giftsoftiktok"},
	models.PlatformInstagram: {"instagifts", "reelsgifts"},
	models.PlatformYouTube:   {"shorts", "giftshorts"},
}

// BuildHashtags assembles the hashtag set: base brand tags, occasion tags,
// platform tags, plus any provider-suggested extras, deduplicated, shuffled
// with the run's rng, and capped at hashtagCount.
func BuildHashtags(topic string, occasion models.Occasion, platform models.Platform, extras []string, rng *rand.Rand) []string {
	seen := make(map[string]bool)
	var tags []string

	add := func(raw string) {
		tag := normalizeHashtag(raw)
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, t := range baseHashtags {
		add(t)
	}
	for _, t := range occasionHashtags[occasion] {
		add(t)
	}
	for _, t := range platformHashtags[platform] {
		add(t)
	}
	add(topic)
	for _, t := range extras {
		add(t)
	}

	rng.Shuffle(len(tags), func(i, j int) {
		tags[i], tags[j] = tags[j], tags[i]
	})

	if len(tags) > hashtagCount {
		tags = tags[:hashtagCount]
	}

	for i, t := range tags {
		tags[i] = "#" + t
	}
	return tags
}

// normalizeHashtag lowercases and strips everything that isn't a letter or
// digit. Overlong results are dropped — nobody reads a 40-character tag.
func normalizeHashtag(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "#")) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	tag := b.String()
	if len(tag) < 3 || len(tag) > 28 {
		return ""
	}
	return tag
}

var ctaTemplates = map[models.Occasion][]string{
	models.OccasionGeneral: {
		"Full gift guide at %s",
		"More ideas like this at %s",
		"Save this, then browse %s",
	},
	models.OccasionBirthday: {
		"Birthday sorted — more at %s",
		"Find their birthday gift at %s",
	},
	models.OccasionWedding: {
		"Wedding gifts they'll keep — %s",
		"Browse wedding picks at %s",
	},
	models.OccasionAnniversary: {
		"Make the year count — %s",
		"Anniversary ideas at %s",
	},
	models.OccasionChristmas: {
		"Christmas shopping, done — %s",
		"Beat the December rush at %s",
	},
}

// PickCTA selects a call-to-action template for the occasion and fills in
// the brand URL.
func PickCTA(occasion models.Occasion, brandURL string, rng *rand.Rand) string {
	templates := ctaTemplates[occasion]
	if len(templates) == 0 {
		templates = ctaTemplates[models.OccasionGeneral]
	}
	return fmt.Sprintf(templates[rng.Intn(len(templates))], brandURL)
}

// fallbackHooks replace a missing or over-long hook. All entries fit the
// hook word limit.
var fallbackHooks = map[models.Occasion][]string{
	models.OccasionGeneral: {
		"The gift they'll actually keep",
		"Stop scrolling, gift idea inside",
		"Gifts that don't end up regifted",
		"You have 15 seconds, watch this",
	},
	models.OccasionBirthday: {
		"Their best birthday present yet",
		"Birthday gift panic? Watch this",
	},
	models.OccasionWedding: {
		"The wedding gift nobody else brings",
		"Skip the registry, gift this instead",
	},
	models.OccasionAnniversary: {
		"An anniversary gift worth the years",
		"Forget flowers, try this instead",
	},
	models.OccasionChristmas: {
		"The present under every clever tree",
		"Christmas shopping in fifteen seconds",
	},
}

// FallbackHook picks a curated hook for the occasion.
func FallbackHook(occasion models.Occasion, rng *rand.Rand) string {
	hooks := fallbackHooks[occasion]
	if len(hooks) == 0 {
		hooks = fallbackHooks[models.OccasionGeneral]
	}
	return hooks[rng.Intn(len(hooks))]
}
