package distribution

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/giftloop/megaphone/internal/db"
	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
	"github.com/giftloop/megaphone/internal/services"
	"github.com/giftloop/megaphone/internal/storage"
)

const (
	maxRepliesPerRun     = 5  // reply drafts queued per daily run
	maxEmailDraftsPerRun = 10 // cold emails drafted per daily run
	digestOpportunities  = 5  // opportunities surfaced in the digest
)

// Workflow runs the daily distribution pass: publish what's allowed, draft
// what needs a human, monitor what must never be touched, then tell the
// operator what happened.
type Workflow struct {
	db        *db.DB
	gen       *services.Generator
	medium    *services.MediumService
	pinterest *services.PinterestService
	linkedin  *services.LinkedInService
	reddit    *services.RedditService
	mumsnet   *services.MumsnetService
	telegram  *services.TelegramService
	store     *storage.Storage
	brandURL  string
	log       *charm.Logger
}

func NewWorkflow(
	database *db.DB,
	gen *services.Generator,
	medium *services.MediumService,
	pinterest *services.PinterestService,
	linkedin *services.LinkedInService,
	reddit *services.RedditService,
	mumsnet *services.MumsnetService,
	telegram *services.TelegramService,
	store *storage.Storage,
	brandURL string,
) *Workflow {
	return &Workflow{
		db:        database,
		gen:       gen,
		medium:    medium,
		pinterest: pinterest,
		linkedin:  linkedin,
		reddit:    reddit,
		mumsnet:   mumsnet,
		telegram:  telegram,
		store:     store,
		brandURL:  brandURL,
		log:       logging.Component("distribution"),
	}
}

// Digest summarizes one daily run for the operator message.
type Digest struct {
	RunDate           string
	ArticleTitle      string
	Tier1Actions      []string
	RepliesQueued     int
	EmailsDrafted     int
	MumsnetFindings   int
	MumsnetEngageable []models.Opportunity
	Counts            map[models.Tier]int
	TopOpportunities  []models.Opportunity
}

// RunDaily executes the five distribution steps in order. Steps degrade
// independently: a platform outage in one tier never blocks the others,
// and the digest reports whatever actually happened.
func (w *Workflow) RunDaily(ctx context.Context) (*Digest, error) {
	digest := &Digest{
		RunDate: time.Now().Format("2006-01-02"),
		Counts:  make(map[models.Tier]int),
	}

	w.log.Info("daily distribution starting", "date", digest.RunDate)

	// Step 1: publish or draft today's article on Tier-1 platforms
	if err := w.publishTier1(ctx, digest); err != nil {
		w.log.Warn("tier-1 publishing incomplete", "err", err)
	}

	// Step 2: scan Tier-2 monitors, draft replies for approval
	if err := w.scanTier2(ctx, digest); err != nil {
		w.log.Warn("tier-2 scan incomplete", "err", err)
	}

	// Step 3: draft Tier-3 outreach emails for new leads
	if err := w.draftTier3(ctx, digest); err != nil {
		w.log.Warn("tier-3 drafting incomplete", "err", err)
	}

	// Step 4: refresh Tier-4 intelligence, no engagement
	if err := w.monitorTier4(ctx, digest); err != nil {
		w.log.Warn("tier-4 monitoring incomplete", "err", err)
	}

	// Step 5: operator digest
	if err := w.sendDigest(ctx, digest); err != nil {
		return digest, fmt.Errorf("digest delivery failed: %w", err)
	}

	w.log.Info("daily distribution complete",
		"tier1", len(digest.Tier1Actions),
		"replies", digest.RepliesQueued,
		"emails", digest.EmailsDrafted,
		"mumsnet", digest.MumsnetFindings)

	return digest, nil
}

// ---------------------------------------------------------------------------
// Step 1: Tier-1 auto-safe publishing
// ---------------------------------------------------------------------------

func (w *Workflow) publishTier1(ctx context.Context, digest *Digest) error {
	article, err := w.db.GetLatestReadyArticle(ctx)
	if err != nil {
		w.recordAction(ctx, "article", nil, "medium", models.ActionSkipped, "no ready article")
		return fmt.Errorf("nothing to publish: %w", err)
	}

	digest.ArticleTitle = deref(article.Title)
	articleRef := article.ID.String()
	canonicalURL := w.canonicalURL(article)

	if w.medium != nil && w.medium.Enabled() {
		w.runPublisher(ctx, digest, articleRef, "medium", func() (*services.PublishResult, error) {
			return w.medium.PublishArticle(ctx, article, canonicalURL)
		})
	}

	if w.linkedin != nil && w.linkedin.Enabled() {
		w.runPublisher(ctx, digest, articleRef, "linkedin", func() (*services.PublishResult, error) {
			return w.linkedin.ShareArticle(ctx, article, canonicalURL)
		})
	}

	if w.pinterest != nil && w.pinterest.Enabled() {
		heroURL := w.heroImageURL(ctx, article)
		if heroURL == "" {
			w.recordAction(ctx, "article", &articleRef, "pinterest", models.ActionSkipped, "article has no hero image")
		} else {
			w.runPublisher(ctx, digest, articleRef, "pinterest", func() (*services.PublishResult, error) {
				return w.pinterest.CreatePin(ctx, article, heroURL, canonicalURL)
			})
		}
	}

	return nil
}

// runPublisher calls one Tier-1 publisher and writes the outcome to the
// ledger. The recorded action distinguishes a live publish from a draft.
func (w *Workflow) runPublisher(ctx context.Context, digest *Digest, articleRef, platform string, publish func() (*services.PublishResult, error)) {
	if _, allowed := Route("article", platform); allowed == models.ActionSkipped {
		w.recordAction(ctx, "article", &articleRef, platform, models.ActionSkipped, "not routed for articles")
		return
	}

	result, err := publish()
	if err != nil {
		w.log.Error("tier-1 publish failed", "platform", platform, "err", err)
		w.recordAction(ctx, "article", &articleRef, platform, models.ActionSkipped, err.Error())
		digest.Tier1Actions = append(digest.Tier1Actions, fmt.Sprintf("%s: failed (%v)", platform, err))
		return
	}

	action := models.ActionPublished
	verb := "published"
	if result.Drafted {
		action = models.ActionDrafted
		verb = "drafted"
	}

	w.recordAction(ctx, "article", &articleRef, platform, action, result.URL)
	digest.Tier1Actions = append(digest.Tier1Actions, fmt.Sprintf("%s: %s %s", platform, verb, result.URL))
	w.log.Info("tier-1 publish done", "platform", platform, "action", action, "url", result.URL)
}

func (w *Workflow) canonicalURL(article *models.Article) string {
	slug := deref(article.Slug)
	if slug == "" {
		return w.brandURL
	}
	return strings.TrimRight(w.brandURL, "/") + "/blog/" + slug
}

func (w *Workflow) heroImageURL(ctx context.Context, article *models.Article) string {
	if article.HeroImageAssetID == nil {
		return ""
	}
	asset, err := w.db.GetAsset(ctx, *article.HeroImageAssetID)
	if err != nil {
		w.log.Warn("hero image asset lookup failed", "asset", article.HeroImageAssetID, "err", err)
		return ""
	}
	return w.store.GetPublicURL(asset.StoragePath)
}

// ---------------------------------------------------------------------------
// Step 2: Tier-2 monitors (reddit)
// ---------------------------------------------------------------------------

func (w *Workflow) scanTier2(ctx context.Context, digest *Digest) error {
	if w.reddit == nil || !w.reddit.Enabled() {
		w.log.Debug("reddit monitor not configured, skipping tier 2")
		return nil
	}

	findings, err := w.reddit.ScanForOpportunities(ctx, nil)
	if err != nil {
		return fmt.Errorf("reddit scan failed: %w", err)
	}

	drafted := 0
	for _, finding := range findings {
		opp := finding.Opportunity
		opp.ID = uuid.New()

		// Insert before drafting so duplicates from earlier scans never
		// cost a generation call.
		created, err := w.db.CreateOpportunity(ctx, opp)
		if err != nil {
			w.log.Warn("opportunity insert failed", "url", opp.URL, "err", err)
			continue
		}
		if !created {
			continue
		}

		if drafted < maxRepliesPerRun {
			reply, _, err := w.gen.DraftReply(ctx, opp.Source, opp.Title, finding.Body)
			if err != nil {
				w.log.Warn("reply draft failed", "title", opp.Title, "err", err)
			} else if err := w.db.SetOpportunityReply(ctx, opp.ID, reply); err != nil {
				w.log.Warn("reply draft save failed", "title", opp.Title, "err", err)
			} else {
				drafted++
			}
		}

		ref := opp.ID.String()
		w.recordAction(ctx, "reply", &ref, "reddit", models.ActionQueuedForApproval, opp.Title)
		digest.RepliesQueued++
	}

	return nil
}

// ---------------------------------------------------------------------------
// Step 3: Tier-3 outreach email drafts
// ---------------------------------------------------------------------------

func (w *Workflow) draftTier3(ctx context.Context, digest *Digest) error {
	leads, err := w.db.ListLeads(ctx, string(models.LeadStatusNew), maxEmailDraftsPerRun, 0)
	if err != nil {
		return fmt.Errorf("failed to list new leads: %w", err)
	}

	for i := range leads {
		lead := &leads[i]

		draft, provider, err := w.gen.DraftColdEmail(ctx, lead)
		if err != nil {
			w.log.Warn("email draft failed", "lead", lead.Name, "err", err)
			continue
		}

		if err := w.db.SetLeadEmailDraft(ctx, lead.ID, draft); err != nil {
			w.log.Warn("email draft save failed", "lead", lead.Name, "err", err)
			continue
		}
		if err := w.db.UpdateLeadStatus(ctx, lead.ID, models.LeadStatusDrafted); err != nil {
			w.log.Warn("lead status update failed", "lead", lead.Name, "err", err)
		}

		ref := lead.ID.String()
		w.recordAction(ctx, "email", &ref, "email", models.ActionDrafted, lead.Name)
		digest.EmailsDrafted++
		w.log.Info("outreach email drafted", "lead", lead.Name, "style", lead.Style, "provider", provider)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Step 4: Tier-4 monitor-only intelligence (mumsnet)
// ---------------------------------------------------------------------------

func (w *Workflow) monitorTier4(ctx context.Context, digest *Digest) error {
	if w.mumsnet == nil {
		return nil
	}

	opportunities, err := w.mumsnet.ScanForOpportunities(ctx, nil)
	if err != nil {
		return fmt.Errorf("mumsnet scan failed: %w", err)
	}

	var fresh []models.Opportunity
	for _, opp := range opportunities {
		opp.ID = uuid.New()
		created, err := w.db.CreateOpportunity(ctx, opp)
		if err != nil {
			w.log.Warn("opportunity insert failed", "url", opp.URL, "err", err)
			continue
		}
		if !created {
			continue
		}
		fresh = append(fresh, *opp)

		ref := opp.ID.String()
		w.recordAction(ctx, "intel", &ref, "mumsnet", models.ActionMonitored, opp.Title)
		digest.MumsnetFindings++
	}

	// The tier never engages on its own; the digest just points the
	// operator at the threads where a personal reply would land well.
	digest.MumsnetEngageable = EngageList(fresh)

	return nil
}

// ---------------------------------------------------------------------------
// Step 5: operator digest
// ---------------------------------------------------------------------------

func (w *Workflow) sendDigest(ctx context.Context, digest *Digest) error {
	counts, err := w.Stats(ctx, 1)
	if err != nil {
		w.log.Warn("ledger aggregation failed, digest counts will be empty", "err", err)
		counts = make(map[models.Tier]int)
	}
	digest.Counts = counts

	top, err := w.db.ListOpportunities(ctx, string(models.OpportunityStatusSentForApproval), digestOpportunities)
	if err != nil {
		w.log.Warn("opportunity list failed for digest", "err", err)
	}
	digest.TopOpportunities = top

	return w.telegram.SendMessage(ctx, BuildDigestMessage(digest))
}

// Stats aggregates the action ledger over the last N days.
func (w *Workflow) Stats(ctx context.Context, days int) (map[models.Tier]int, error) {
	return w.db.CountActionsByTier(ctx, days)
}

// ScanOpportunities runs just the monitor tiers, outside the daily
// workflow. Used for ad-hoc sweeps between distribution runs.
func (w *Workflow) ScanOpportunities(ctx context.Context) (*Digest, error) {
	digest := &Digest{
		RunDate: time.Now().Format("2006-01-02"),
		Counts:  make(map[models.Tier]int),
	}

	var firstErr error
	if err := w.scanTier2(ctx, digest); err != nil {
		w.log.Warn("tier-2 scan incomplete", "err", err)
		firstErr = err
	}
	if err := w.monitorTier4(ctx, digest); err != nil {
		w.log.Warn("tier-4 monitoring incomplete", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	w.log.Info("opportunity sweep complete",
		"replies_queued", digest.RepliesQueued, "mumsnet_findings", digest.MumsnetFindings)
	return digest, firstErr
}

// BuildDigestMessage formats the daily digest for Telegram.
func BuildDigestMessage(d *Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📣 <b>Distribution digest — %s</b>\n\n", d.RunDate)

	if d.ArticleTitle != "" {
		fmt.Fprintf(&b, "📝 Article: %s\n", html.EscapeString(d.ArticleTitle))
	}
	for _, line := range d.Tier1Actions {
		fmt.Fprintf(&b, "  • %s\n", html.EscapeString(line))
	}
	b.WriteString("\n")

	for _, tier := range []models.Tier{models.TierAutoSafe, models.TierSemiAuto, models.TierApproval, models.TierMonitorOnly} {
		fmt.Fprintf(&b, "Tier %d (%s): %d actions\n", tier, TierName(tier), d.Counts[tier])
	}

	fmt.Fprintf(&b, "\n✉️ Emails drafted: %d | 💬 Replies queued: %d | 👀 Mumsnet findings: %d\n",
		d.EmailsDrafted, d.RepliesQueued, d.MumsnetFindings)

	if len(d.TopOpportunities) > 0 {
		b.WriteString("\n🔥 <b>Top opportunities awaiting approval:</b>\n")
		for i, opp := range d.TopOpportunities {
			fmt.Fprintf(&b, "%d. [%.2f | danger %d] %s\n%s\n",
				i+1, opp.Score, opp.DangerLevel, html.EscapeString(opp.Title), opp.URL)
		}
	}

	if len(d.MumsnetEngageable) > 0 {
		b.WriteString("\n🧵 <b>Mumsnet threads worth a personal reply:</b>\n")
		for _, opp := range d.MumsnetEngageable {
			fmt.Fprintf(&b, "• [%.2f | danger %d] %s\n%s\n",
				opp.Score, opp.DangerLevel, html.EscapeString(opp.Title), opp.URL)
		}
	}

	return b.String()
}

// recordAction appends one row to the distribution ledger. Ledger writes
// never fail the run; a lost row costs digest accuracy, not content.
func (w *Workflow) recordAction(ctx context.Context, contentType string, contentRef *string, platform string, action models.DistributionActionType, detail string) {
	tier, _ := Route(contentType, platform)

	row := &models.DistributionAction{
		ID:          uuid.New(),
		ContentType: contentType,
		ContentRef:  contentRef,
		Platform:    platform,
		Tier:        tier,
		Action:      action,
	}
	if detail != "" {
		row.Detail = &detail
	}

	if err := w.db.RecordDistributionAction(ctx, row); err != nil {
		w.log.Warn("ledger write failed", "platform", platform, "action", action, "err", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// EngageList filters mumsnet findings down to the threads safe to engage:
// relevance above the floor, danger below the ceiling, best first.
func EngageList(opportunities []models.Opportunity) []models.Opportunity {
	var out []models.Opportunity
	for _, opp := range opportunities {
		if opp.Source != models.OpportunitySourceMumsnet {
			continue
		}
		if services.EngageRecommended(opp.Score, opp.DangerLevel) {
			out = append(out, opp)
		}
	}

	// Scan results arrive in crawl order, not ranked.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DangerLevel < out[j].DangerLevel
	})

	return out
}
