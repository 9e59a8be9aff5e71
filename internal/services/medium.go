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

// PublishResult is the common outcome type for article syndication targets.
type PublishResult struct {
	URL        string
	ExternalID string
	Drafted    bool // true when the post landed as a draft rather than live
}

// ---------------------------------------------------------------------------
// Medium syndication
// Articles are cross-posted with a canonical link back to the blog. Posts
// land as drafts unless auto-publish is explicitly switched on.
// ---------------------------------------------------------------------------

const mediumAPIBase = "https://api.medium.com/v1"

type MediumService struct {
	token       string
	userID      string
	autoPublish bool
	client      *resty.Client
	log         *charm.Logger
}

func NewMediumService(token, userID string, autoPublish bool) *MediumService {
	return &MediumService{
		token:       token,
		userID:      userID,
		autoPublish: autoPublish,
		client: resty.New().
			SetTimeout(60 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(3 * time.Second),
		log: logging.Component("medium"),
	}
}

func (s *MediumService) Name() string { return "medium" }

func (s *MediumService) Enabled() bool {
	return s.token != "" && s.userID != ""
}

type mediumPostRequest struct {
	Title         string   `json:"title"`
	ContentFormat string   `json:"contentFormat"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags,omitempty"`
	CanonicalURL  string   `json:"canonicalUrl,omitempty"`
	PublishStatus string   `json:"publishStatus"`
}

type mediumPostResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

// PublishArticle cross-posts an article. canonicalURL points back to the
// original so search engines don't treat the syndicated copy as the source.
func (s *MediumService) PublishArticle(ctx context.Context, article *models.Article, canonicalURL string) (*PublishResult, error) {
	if article.Title == nil || article.HTML == nil {
		return nil, fmt.Errorf("article %s has no rendered content", article.ID)
	}

	status := "draft"
	if s.autoPublish {
		status = "public"
	}

	reqBody := mediumPostRequest{
		Title:         *article.Title,
		ContentFormat: "html",
		Content:       *article.HTML,
		Tags:          []string{"gifts", "gift-guide", article.Keyword},
		CanonicalURL:  canonicalURL,
		PublishStatus: status,
	}

	var result mediumPostResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.token).
		SetBody(reqBody).
		SetResult(&result).
		Post(fmt.Sprintf("%s/users/%s/posts", mediumAPIBase, s.userID))
	if err != nil {
		return nil, fmt.Errorf("medium post failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("medium returned status %d: %s", resp.StatusCode(), resp.String())
	}

	s.log.Info("article posted to medium", "article", article.ID, "status", status, "url", result.Data.URL)

	return &PublishResult{
		URL:        result.Data.URL,
		ExternalID: result.Data.ID,
		Drafted:    status == "draft",
	}, nil
}
