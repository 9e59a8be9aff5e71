package services

import (
	"context"
	"fmt"

	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// Outreach and reply drafting
// Everything here produces DRAFTS for operator review. Nothing is sent or
// posted by the system itself.
// ---------------------------------------------------------------------------

// styleFraming adjusts the email voice to the classified business style.
var styleFraming = map[models.BusinessStyle]string{
	models.StyleLuxury:      "refined and understated; emphasise premium presentation and discretion",
	models.StyleRustic:      "warm and personal; emphasise handmade charm and personal touches",
	models.StyleModern:      "clean and direct; emphasise convenience and a polished customer experience",
	models.StyleTraditional: "courteous and classic; emphasise reliability and long-standing service",
	models.StyleEco:         "genuine and values-led; emphasise sustainability and local sourcing",
}

// DraftColdEmail writes a short partnership email for a local business
// lead. The draft is stored on the lead and forwarded to an operator; it
// is never sent automatically.
func (g *Generator) DraftColdEmail(ctx context.Context, lead *models.Lead) (string, string, error) {
	framing, ok := styleFraming[lead.Style]
	if !ok {
		framing = styleFraming[models.StyleTraditional]
	}

	system := fmt.Sprintf(`You write cold outreach emails for %s, a gift discovery platform, proposing a free listing partnership to local businesses.

Rules:
- British English, under 150 words.
- First line: "Subject: " followed by a subject under 8 words.
- Open with one specific, plausible compliment about their business type. No flattery padding.
- One concrete ask: a 15-minute call or a reply to this email.
- Tone for this business: %s.
- No pricing, no pressure, no "limited time" language. Sign off as "The %s team".`, g.brandName, framing, g.brandName)

	user := fmt.Sprintf("Business name: %s\nCategory: %s\nStyle: %s", lead.Name, lead.Category, lead.Style)

	draft, provider, err := g.Complete(ctx, system, user)
	if err != nil {
		return "", "", fmt.Errorf("failed to draft outreach email for %s: %w", lead.Name, err)
	}
	if _, found := ContainsForbiddenWord(draft); found {
		return "", "", fmt.Errorf("outreach draft for %s contains banned claim language", lead.Name)
	}

	return draft, provider, nil
}

// DraftReply writes a suggested forum reply for a monitor opportunity.
// Helpful-first: the drafted reply must stand on its own as advice, with
// at most one link. Always queued for operator approval, never posted.
func (g *Generator) DraftReply(ctx context.Context, source models.OpportunitySource, title, body string) (string, string, error) {
	system := fmt.Sprintf(`You draft forum replies on behalf of a person who works at %s and genuinely enjoys helping people find gifts.

Rules:
- British English, conversational, 60-120 words.
- Lead with 2-3 concrete gift suggestions that answer the actual question. Specific beats generic.
- At most ONE link, and only if it genuinely helps: %s. Most replies should have no link at all.
- Never open with "As someone who..." or mention working in the gift industry.
- No hashtags, no emoji, no sign-off.`, g.brandName, g.brandURL)

	user := fmt.Sprintf("Forum: %s\nThread title: %s\nThread text: %s", source, title, truncateString(body, 1500))

	draft, provider, err := g.Complete(ctx, system, user)
	if err != nil {
		return "", "", fmt.Errorf("failed to draft reply for %q: %w", title, err)
	}

	return draft, provider, nil
}
