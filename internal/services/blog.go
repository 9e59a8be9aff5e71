package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"

	charm "github.com/charmbracelet/log"

	"github.com/giftloop/megaphone/internal/logging"
)

// ---------------------------------------------------------------------------
// Blog articles
// Long-form gift guides written through the text cascade: outline in JSON
// mode, then one call per section, then intro and conclusion. A humanizing
// pass breaks up the uniform model cadence before markdown assembly.
// ---------------------------------------------------------------------------

const (
	articleSectionsMin = 6
	articleSectionsMax = 8
	readingWPM         = 225
	interjectionOdds   = 0.18 // chance of an interjection at a paragraph boundary
)

type ArticleWriter struct {
	gen *Generator
	log *charm.Logger
}

func NewArticleWriter(gen *Generator) *ArticleWriter {
	return &ArticleWriter{
		gen: gen,
		log: logging.Component("blog"),
	}
}

// ArticleDraft is the full output of one WriteArticle run. The caller maps
// it onto the articles table and attaches the hero image.
type ArticleDraft struct {
	Title          string
	Slug           string
	Angle          string
	Outline        []string
	Markdown       string
	HTML           string
	WordCount      int
	ReadingMinutes int
	Provider       string
}

type articleOutline struct {
	Title    string   `json:"title"`
	Angle    string   `json:"angle"`
	Sections []string `json:"sections"`
}

// GenerateOutline asks for a title, an angle, and 6-8 H2 headings. A
// template outline stands in when every provider fails.
func (w *ArticleWriter) GenerateOutline(ctx context.Context, topic, keyword string) (*articleOutline, string) {
	system := fmt.Sprintf(`You are the editor of the %s blog, which publishes practical gift guides in British English.
Plan a long-form article and respond with JSON only, in this exact shape:
{
  "title": "article title, 50-65 characters, contains the focus keyword",
  "angle": "one sentence describing the unique angle of this article",
  "sections": ["heading 1", "heading 2", ...]
}

Rules:
- Between %d and %d section headings.
- Headings are specific and scannable, not generic filler like "Introduction" or "Conclusion".
- No numbered headings. No clickbait superlatives.`, w.gen.brandName, articleSectionsMin, articleSectionsMax)

	user := fmt.Sprintf("Topic: %s\nFocus keyword: %s", topic, keyword)

	var outline articleOutline
	provider, err := w.gen.CompleteJSON(ctx, system, user, &outline)
	if err != nil {
		w.log.Warn("outline generation failed, using template outline", "topic", topic, "error", err)
		return fallbackOutline(topic, keyword), "template"
	}

	outline.Title = strings.TrimSpace(outline.Title)
	if outline.Title == "" || len(outline.Sections) < 3 {
		w.log.Warn("outline came back incomplete, using template outline", "topic", topic, "sections", len(outline.Sections))
		return fallbackOutline(topic, keyword), "template"
	}
	if len(outline.Sections) > articleSectionsMax {
		outline.Sections = outline.Sections[:articleSectionsMax]
	}

	return &outline, provider
}

func fallbackOutline(topic, keyword string) *articleOutline {
	return &articleOutline{
		Title: fmt.Sprintf("%s: A Practical Guide to Getting It Right", strings.TrimSpace(topic)),
		Angle: fmt.Sprintf("A no-nonsense walkthrough of %s for busy shoppers.", keyword),
		Sections: []string{
			fmt.Sprintf("Why %s Is Harder Than It Looks", topic),
			"Start With the Person, Not the Product",
			"Budget Bands That Actually Work",
			"Ideas That Feel Personal Without Being Risky",
			"Where to Shop and When to Order",
			"Wrapping and Presentation Touches",
			"Mistakes to Avoid",
		},
	}
}

// WriteArticle runs the full pipeline: outline, section bodies, intro,
// conclusion, humanizing pass, markdown assembly, HTML conversion.
func (w *ArticleWriter) WriteArticle(ctx context.Context, topic, keyword string, rng *rand.Rand) (*ArticleDraft, error) {
	outline, provider := w.GenerateOutline(ctx, topic, keyword)
	w.log.Info("outline ready", "title", outline.Title, "sections", len(outline.Sections), "provider", provider)

	sectionSystem := fmt.Sprintf(`You write body copy for the %s blog: practical gift guides in British English.
Write in second person, warm and direct, like advice from a well-organised friend.
Use short paragraphs (2-4 sentences). Markdown bold for product names or key phrases.
Use a bulleted list only when listing concrete options.
Do NOT include the section heading itself. Do NOT add a sign-off.`, w.gen.brandName)

	var sections []string
	for i, heading := range outline.Sections {
		user := fmt.Sprintf(`Article title: %s
Angle: %s
Section heading: %s
Section %d of %d.

Write 300-400 words for this section.`, outline.Title, outline.Angle, heading, i+1, len(outline.Sections))

		body, p, err := w.gen.Complete(ctx, sectionSystem, user)
		if err != nil {
			return nil, fmt.Errorf("failed to write section %q: %w", heading, err)
		}
		if p != provider && provider != "template" {
			provider = p
		}
		sections = append(sections, w.humanize(strings.TrimSpace(body), rng))
	}

	intro, _, err := w.gen.Complete(ctx, sectionSystem, fmt.Sprintf(`Article title: %s
Angle: %s

Write a 2-paragraph introduction (under 120 words total). Open with the reader's situation, not with the article. End the second paragraph by promising what the guide covers.`, outline.Title, outline.Angle))
	if err != nil {
		return nil, fmt.Errorf("failed to write introduction: %w", err)
	}

	conclusion, _, err := w.gen.Complete(ctx, sectionSystem, fmt.Sprintf(`Article title: %s

Write a 2-paragraph conclusion (under 100 words total). Recap the single most useful idea, then close with a gentle nudge to browse %s for more ideas. One link maximum, written as [%s](%s).`, outline.Title, w.gen.brandName, w.gen.brandName, w.gen.brandURL))
	if err != nil {
		return nil, fmt.Errorf("failed to write conclusion: %w", err)
	}

	markdown := assembleMarkdown(outline, strings.TrimSpace(intro), sections, strings.TrimSpace(conclusion))
	html := MarkdownToHTML(markdown)
	words := CountWords(markdown)

	draft := &ArticleDraft{
		Title:          outline.Title,
		Slug:           Slugify(outline.Title),
		Angle:          outline.Angle,
		Outline:        outline.Sections,
		Markdown:       markdown,
		HTML:           html,
		WordCount:      words,
		ReadingMinutes: ReadingMinutes(words),
		Provider:       provider,
	}

	w.log.Info("article written", "slug", draft.Slug, "words", draft.WordCount, "readingMin", draft.ReadingMinutes, "provider", provider)
	return draft, nil
}

func assembleMarkdown(outline *articleOutline, intro string, sections []string, conclusion string) string {
	var b strings.Builder
	b.WriteString("# " + outline.Title + "\n\n")
	b.WriteString(intro + "\n\n")
	for i, heading := range outline.Sections {
		b.WriteString("## " + heading + "\n\n")
		b.WriteString(sections[i] + "\n\n")
	}
	b.WriteString(conclusion + "\n")
	return b.String()
}

// interjections get dropped in front of paragraphs to break the uniform
// model cadence. Kept short so they read as asides, not content.
var interjections = []string{
	"Here's the thing.",
	"Quick tip:",
	"Trust me on this one.",
	"And honestly?",
	"One more thing worth knowing.",
	"Worth repeating:",
}

// humanize injects occasional interjection sentences at paragraph
// boundaries. The first paragraph is left alone.
func (w *ArticleWriter) humanize(text string, rng *rand.Rand) string {
	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) < 2 {
		return text
	}

	for i := 1; i < len(paragraphs); i++ {
		p := strings.TrimSpace(paragraphs[i])
		if p == "" || strings.HasPrefix(p, "-") || strings.HasPrefix(p, "#") {
			continue
		}
		if rng.Float64() < interjectionOdds {
			paragraphs[i] = interjections[rng.Intn(len(interjections))] + " " + p
		}
	}

	return strings.Join(paragraphs, "\n\n")
}

// ---------------------------------------------------------------------------
// Markdown assembly helpers
// ---------------------------------------------------------------------------

var (
	boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)
	linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	slugStrip   = regexp.MustCompile(`[^a-z0-9]+`)
)

// MarkdownToHTML converts the subset of markdown the article pipeline
// emits: headings, bold, bulleted lists, links, paragraphs.
func MarkdownToHTML(md string) string {
	var b strings.Builder
	inList := false

	closeList := func() {
		if inList {
			b.WriteString("</ul>\n")
			inList = false
		}
	}

	flushParagraph := func(lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString("<p>" + renderInline(strings.Join(lines, " ")) + "</p>\n")
	}

	var para []string
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushParagraph(para)
			para = nil
			closeList()

		case strings.HasPrefix(trimmed, "### "):
			flushParagraph(para)
			para = nil
			closeList()
			b.WriteString("<h3>" + renderInline(strings.TrimPrefix(trimmed, "### ")) + "</h3>\n")

		case strings.HasPrefix(trimmed, "## "):
			flushParagraph(para)
			para = nil
			closeList()
			b.WriteString("<h2>" + renderInline(strings.TrimPrefix(trimmed, "## ")) + "</h2>\n")

		case strings.HasPrefix(trimmed, "# "):
			flushParagraph(para)
			para = nil
			closeList()
			b.WriteString("<h1>" + renderInline(strings.TrimPrefix(trimmed, "# ")) + "</h1>\n")

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushParagraph(para)
			para = nil
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			b.WriteString("<li>" + renderInline(trimmed[2:]) + "</li>\n")

		default:
			para = append(para, trimmed)
		}
	}
	flushParagraph(para)
	closeList()

	return b.String()
}

// renderInline escapes HTML then applies bold and link formatting.
func renderInline(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = boldPattern.ReplaceAllString(s, "<strong>$1</strong>")
	s = linkPattern.ReplaceAllString(s, `<a href="$2">$1</a>`)
	return s
}

// Slugify turns a title into a URL slug: lowercase, hyphen-separated,
// capped at 80 characters on a hyphen boundary.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = slug[:80]
		if idx := strings.LastIndex(slug, "-"); idx > 40 {
			slug = slug[:idx]
		}
	}
	return slug
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ReadingMinutes estimates reading time at 225 words per minute, minimum 1.
func ReadingMinutes(words int) int {
	m := int(math.Round(float64(words) / float64(readingWPM)))
	if m < 1 {
		m = 1
	}
	return m
}
