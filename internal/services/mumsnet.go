package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	charm "github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// Mumsnet monitor
// Mumsnet has no API, so the talk boards are scraped. The community is
// famously hostile to anything that smells like advertising, so every
// thread gets a danger level alongside its relevance score and the monitor
// NEVER suggests engaging above the danger ceiling. Strictly read-only.
// ---------------------------------------------------------------------------

const mumsnetBase = "https://www.mumsnet.com"

// MumsnetBoards is the default scan list. AIBU is the busiest board and
// the most combative, which the danger scoring accounts for.
var MumsnetBoards = []string{
	"am_i_being_unreasonable",
	"chat",
	"relationships",
	"parents",
	"christmas",
}

// mumsnetKeywords gates scanning. Threads matching none of these are not
// gift conversations.
var mumsnetKeywords = []string{
	"gift", "present", "what to get", "what to buy",
	"stocking", "hamper", "secret santa",
	"granny", "grandad", "grandparent",
	"personalised", "sentimental", "meaningful",
}

// Engagement rule: worth flagging for a human only when the thread is
// relevant enough and the room isn't hostile.
const (
	mumsnetScoreFloor    = 0.6
	mumsnetDangerCeiling = 3
)

type MumsnetService struct {
	client *resty.Client
	log    *charm.Logger
}

func NewMumsnetService() *MumsnetService {
	return &MumsnetService{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(3 * time.Second).
			SetHeader("User-Agent", "Mozilla/5.0 (compatible; megaphone-monitor/1.0)"),
		log: logging.Component("mumsnet"),
	}
}

// MumsnetThread is one scraped talk thread.
type MumsnetThread struct {
	Board   string
	Title   string
	URL     string
	Replies int
}

var repliesPattern = regexp.MustCompile(`\((\d+)\s+repl`)

// FetchThreads scrapes the active thread list for one board.
func (s *MumsnetService) FetchThreads(ctx context.Context, board string) ([]MumsnetThread, error) {
	url := fmt.Sprintf("%s/talk/%s", mumsnetBase, board)

	resp, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("mumsnet fetch failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("mumsnet returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mumsnet page: %w", err)
	}

	var threads []MumsnetThread
	seen := make(map[string]bool)

	doc.Find(fmt.Sprintf("a[href*='/talk/%s/']", board)).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" || seen[href] {
			return
		}
		seen[href] = true

		if !strings.HasPrefix(href, "http") {
			href = mumsnetBase + href
		}

		replies := 0
		// Reply counts sit in the link text or its parent row
		rowText := title + " " + strings.TrimSpace(sel.Parent().Text())
		if m := repliesPattern.FindStringSubmatch(rowText); len(m) == 2 {
			replies, _ = strconv.Atoi(m[1])
			// Strip the count fragment from the displayed title
			title = strings.TrimSpace(repliesPattern.ReplaceAllString(title, ""))
		}

		threads = append(threads, MumsnetThread{
			Board:   board,
			Title:   title,
			URL:     href,
			Replies: replies,
		})
	})

	s.log.Debug("board scraped", "board", board, "threads", len(threads))
	return threads, nil
}

// ScanForOpportunities scores threads across the monitored boards. Every
// relevant thread is recorded with its danger level; the engagement
// recommendation is left to the caller.
func (s *MumsnetService) ScanForOpportunities(ctx context.Context, boards []string) ([]*models.Opportunity, error) {
	if len(boards) == 0 {
		boards = MumsnetBoards
	}

	var opportunities []*models.Opportunity

	for _, board := range boards {
		threads, err := s.FetchThreads(ctx, board)
		if err != nil {
			s.log.Warn("board scan failed, continuing", "board", board, "err", err)
			continue
		}

		for _, thread := range threads {
			if !matchesMumsnetKeywords(thread.Title) {
				continue
			}
			score, danger := ScoreMumsnetThread(thread)
			if score < 0.4 {
				continue
			}

			opportunities = append(opportunities, &models.Opportunity{
				Source:      models.OpportunitySourceMumsnet,
				SourceRef:   board,
				Title:       thread.Title,
				URL:         thread.URL,
				Score:       score,
				DangerLevel: danger,
				Status:      models.OpportunityStatusFound,
			})
		}
	}

	s.log.Info("mumsnet scan complete", "boards", len(boards), "opportunities", len(opportunities))
	return opportunities, nil
}

func matchesMumsnetKeywords(title string) bool {
	titleLower := strings.ToLower(title)
	for _, kw := range mumsnetKeywords {
		if strings.Contains(titleLower, kw) {
			return true
		}
	}
	return false
}

// ScoreMumsnetThread rates relevance (0–1) and danger (0–5). Grandparent
// and personalization signals get their own bonuses because those threads
// convert best for the brand.
func ScoreMumsnetThread(t MumsnetThread) (float64, int) {
	titleLower := strings.ToLower(t.Title)

	var score float64

	// Question shape
	if strings.Contains(t.Title, "?") || hasQuestionOpener(titleLower) {
		score += 0.3
	}

	// Grandparent audience
	for _, kw := range []string{"grandparent", "granny", "grandad", "nan", "nana", "grandma", "grandpa"} {
		if strings.Contains(titleLower, kw) {
			score += 0.3
			break
		}
	}

	// Specific occasion
	for _, kw := range []string{"birthday", "christmas", "mother's day", "mothers day", "father's day", "fathers day", "wedding", "anniversary"} {
		if strings.Contains(titleLower, kw) {
			score += 0.2
			break
		}
	}

	// Personalization signals
	for _, kw := range []string{"personalised", "personalized", "meaningful", "sentimental", "special"} {
		if strings.Contains(titleLower, kw) {
			score += 0.2
			break
		}
	}

	// Low competition
	if t.Replies < 10 {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}

	danger := mumsnetDanger(t, titleLower)

	return score, danger
}

// mumsnetDangerSignals mark threads where any brand presence would be
// received badly.
var mumsnetDangerSignals = []string{
	"fed up with ads",
	"marketing",
	"sponsored",
	"shill",
	"mlm",
	"pm me",
}

// mumsnetDanger estimates how badly a reply could go down in the thread,
// from 0 (genuine question) to 5 (do not engage).
func mumsnetDanger(t MumsnetThread, titleLower string) int {
	danger := 0

	for _, signal := range mumsnetDangerSignals {
		if strings.Contains(titleLower, signal) {
			danger++
		}
	}

	// AIBU threads are built for arguments
	if strings.Contains(t.Board, "unreasonable") || strings.Contains(titleLower, "aibu") {
		danger++
	}

	// Busy threads pile on
	if t.Replies > 100 {
		danger++
	}

	if danger > 5 {
		danger = 5
	}
	return danger
}

// EngageRecommended reports whether a thread clears both the relevance
// floor and the danger ceiling.
func EngageRecommended(score float64, danger int) bool {
	return score > mumsnetScoreFloor && danger < mumsnetDangerCeiling
}
