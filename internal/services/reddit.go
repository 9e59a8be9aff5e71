package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// Reddit monitor
// Scans gifting subreddits for fresh questions we could genuinely help
// with. Found threads become opportunities for an operator to act on —
// this service never posts anything.
// ---------------------------------------------------------------------------

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase  = "https://oauth.reddit.com"

	// A thread is worth an operator's time above this score
	redditScoreThreshold = 0.5
)

// MonitoredSubreddits is the default scan list.
var MonitoredSubreddits = []string{
	"GiftIdeas",
	"weddingplanning",
	"LongDistance",
	"Parenting",
	"relationship_advice",
	"AskWomen",
	"AskMen",
	"DIY",
	"CasualUK",
}

type RedditService struct {
	clientID     string
	clientSecret string
	userAgent    string
	client       *resty.Client
	log          *charm.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewRedditService(clientID, clientSecret, userAgent string) *RedditService {
	return &RedditService{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second),
		log: logging.Component("reddit"),
	}
}

func (s *RedditService) Enabled() bool {
	return s.clientID != "" && s.clientSecret != ""
}

type redditTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// ensureToken returns a cached app-only OAuth token, refreshing when it is
// within a minute of expiry.
func (s *RedditService) ensureToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.tokenExp.Add(-time.Minute)) {
		return s.token, nil
	}

	var result redditTokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.clientID, s.clientSecret).
		SetHeader("User-Agent", s.userAgent).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&result).
		Post(redditTokenURL)
	if err != nil {
		return "", fmt.Errorf("reddit token request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("reddit token returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("reddit token response had no access_token")
	}

	s.token = result.AccessToken
	s.tokenExp = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return s.token, nil
}

// RedditPost is one thread from a subreddit listing.
type RedditPost struct {
	ID          string
	Title       string
	SelfText    string
	Permalink   string
	Subreddit   string
	CreatedUTC  float64
	NumComments int
}

type redditListingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Subreddit   string  `json:"subreddit"`
				CreatedUTC  float64 `json:"created_utc"`
				NumComments int     `json:"num_comments"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchNew lists the newest threads in a subreddit.
func (s *RedditService) FetchNew(ctx context.Context, subreddit string, limit int) ([]RedditPost, error) {
	token, err := s.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var result redditListingResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("User-Agent", s.userAgent).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&result).
		Get(fmt.Sprintf("%s/r/%s/new", redditAPIBase, subreddit))
	if err != nil {
		return nil, fmt.Errorf("reddit listing failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit returned status %d: %s", resp.StatusCode(), resp.String())
	}

	posts := make([]RedditPost, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		posts = append(posts, RedditPost(child.Data))
	}
	return posts, nil
}

// ScanFinding pairs a scored opportunity with the source text the reply
// drafter needs but the opportunities table doesn't keep.
type ScanFinding struct {
	Opportunity *models.Opportunity
	Body        string
}

// ScanForOpportunities scores fresh threads across the monitored subreddits
// and returns those worth an operator's attention.
func (s *RedditService) ScanForOpportunities(ctx context.Context, subreddits []string) ([]ScanFinding, error) {
	if len(subreddits) == 0 {
		subreddits = MonitoredSubreddits
	}

	now := time.Now()
	var findings []ScanFinding

	for _, sub := range subreddits {
		posts, err := s.FetchNew(ctx, sub, 50)
		if err != nil {
			s.log.Warn("subreddit scan failed, continuing", "subreddit", sub, "err", err)
			continue
		}

		for _, post := range posts {
			if !mentionsGifting(post) {
				continue
			}
			score := ScoreRedditPost(post, now)
			if score <= redditScoreThreshold {
				continue
			}

			findings = append(findings, ScanFinding{
				Opportunity: &models.Opportunity{
					Source:    models.OpportunitySourceReddit,
					SourceRef: post.Subreddit,
					Title:     post.Title,
					URL:       "https://www.reddit.com" + post.Permalink,
					Score:     score,
					Status:    models.OpportunityStatusFound,
				},
				Body: post.SelfText,
			})
		}
	}

	s.log.Info("reddit scan complete", "subreddits", len(subreddits), "opportunities", len(findings))
	return findings, nil
}

// giftKeywords gates scanning. Threads with none of these are off topic
// no matter how fresh or unanswered.
var giftKeywords = []string{
	"gift", "present", "birthday", "wedding", "anniversary",
	"christmas", "stocking", "hamper", "surprise",
}

func mentionsGifting(p RedditPost) bool {
	text := strings.ToLower(p.Title + " " + p.SelfText)
	for _, kw := range giftKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ScoreRedditPost rates how promising a thread is for a helpful reply.
// Weights: recency up to 0.3, question shape 0.2, low competition up to
// 0.2, occasion relevance 0.2, UK context 0.1. Capped at 1.0.
func ScoreRedditPost(p RedditPost, now time.Time) float64 {
	var score float64

	// Recency — fresh threads are where a reply still gets read
	age := now.Sub(time.Unix(int64(p.CreatedUTC), 0))
	switch {
	case age <= 6*time.Hour:
		score += 0.3
	case age <= 24*time.Hour:
		score += 0.2
	case age <= 72*time.Hour:
		score += 0.1
	}

	// Question shape
	titleLower := strings.ToLower(p.Title)
	if strings.Contains(p.Title, "?") || hasQuestionOpener(titleLower) {
		score += 0.2
	}

	// Low competition — few existing comments
	switch {
	case p.NumComments < 5:
		score += 0.2
	case p.NumComments < 15:
		score += 0.1
	}

	// Occasion relevance
	text := titleLower + " " + strings.ToLower(p.SelfText)
	for _, kw := range []string{"gift", "present", "birthday", "wedding", "anniversary", "christmas", "stocking"} {
		if strings.Contains(text, kw) {
			score += 0.2
			break
		}
	}

	// UK context — the brand ships UK-first
	if isUKContext(p.Subreddit, text) {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func hasQuestionOpener(titleLower string) bool {
	for _, opener := range []string{"what ", "where ", "how ", "which ", "any ", "need ", "help ", "looking for"} {
		if strings.HasPrefix(titleLower, opener) {
			return true
		}
	}
	return false
}

func isUKContext(subreddit, text string) bool {
	subLower := strings.ToLower(subreddit)
	if strings.Contains(subLower, "uk") || subLower == "unitedkingdom" || subLower == "casualuk" {
		return true
	}
	for _, kw := range []string{" uk ", "britain", "british", "london", "nhs", "tesco", "john lewis"} {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
