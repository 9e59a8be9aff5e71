package services

import (
	"context"
	"fmt"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// LinkedIn sharing
// Articles are shared as link posts from the brand account. Without
// auto-publish the share is created in DRAFT state for a human to release.
// ---------------------------------------------------------------------------

const linkedinAPIBase = "https://api.linkedin.com/v2"

type LinkedInService struct {
	token       string
	authorURN   string // e.g. "urn:li:organization:12345"
	autoPublish bool
	client      *resty.Client
	log         *charm.Logger
}

func NewLinkedInService(token, authorURN string, autoPublish bool) *LinkedInService {
	return &LinkedInService{
		token:       token,
		authorURN:   authorURN,
		autoPublish: autoPublish,
		client: resty.New().
			SetTimeout(60 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(3 * time.Second),
		log: logging.Component("linkedin"),
	}
}

func (s *LinkedInService) Name() string { return "linkedin" }

func (s *LinkedInService) Enabled() bool {
	return s.token != "" && s.authorURN != ""
}

type linkedinShareRequest struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent linkedinSpecificContent `json:"specificContent"`
	Visibility      linkedinVisibility      `json:"visibility"`
}

type linkedinSpecificContent struct {
	ShareContent linkedinShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type linkedinShareContent struct {
	ShareCommentary    linkedinText   `json:"shareCommentary"`
	ShareMediaCategory string         `json:"shareMediaCategory"`
	Media              []linkedinMedia `json:"media,omitempty"`
}

type linkedinText struct {
	Text string `json:"text"`
}

type linkedinMedia struct {
	Status      string       `json:"status"`
	OriginalURL string       `json:"originalUrl"`
	Title       linkedinText `json:"title"`
	Description linkedinText `json:"description"`
}

type linkedinVisibility struct {
	MemberNetwork string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

type linkedinShareResponse struct {
	ID string `json:"id"`
}

// ShareArticle posts an article link with a short commentary.
func (s *LinkedInService) ShareArticle(ctx context.Context, article *models.Article, articleURL string) (*PublishResult, error) {
	if article.Title == nil {
		return nil, fmt.Errorf("article %s has no title", article.ID)
	}

	state := "DRAFT"
	if s.autoPublish {
		state = "PUBLISHED"
	}

	commentary := fmt.Sprintf("New on the blog: %s\n\nA practical guide, no filler — %d minute read.", *article.Title, article.ReadingMinutes)

	reqBody := linkedinShareRequest{
		Author:         s.authorURN,
		LifecycleState: state,
		SpecificContent: linkedinSpecificContent{
			ShareContent: linkedinShareContent{
				ShareCommentary:    linkedinText{Text: commentary},
				ShareMediaCategory: "ARTICLE",
				Media: []linkedinMedia{
					{
						Status:      "READY",
						OriginalURL: articleURL,
						Title:       linkedinText{Text: *article.Title},
						Description: linkedinText{Text: fmt.Sprintf("Gift ideas for %s", article.Keyword)},
					},
				},
			},
		},
		Visibility: linkedinVisibility{MemberNetwork: "PUBLIC"},
	}

	var result linkedinShareResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.token).
		SetHeader("X-Restli-Protocol-Version", "2.0.0").
		SetBody(reqBody).
		SetResult(&result).
		Post(linkedinAPIBase + "/ugcPosts")
	if err != nil {
		return nil, fmt.Errorf("linkedin share failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("linkedin returned status %d: %s", resp.StatusCode(), resp.String())
	}

	shareID := result.ID
	if shareID == "" {
		shareID = resp.Header().Get("X-RestLi-Id")
	}

	s.log.Info("article shared to linkedin", "article", article.ID, "state", state, "share", shareID)

	return &PublishResult{
		URL:        fmt.Sprintf("https://www.linkedin.com/feed/update/%s/", shareID),
		ExternalID: shareID,
		Drafted:    state == "DRAFT",
	}, nil
}
