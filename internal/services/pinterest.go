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
// Pinterest pinning
// Each published article gets a pin with its pinterest-spec image linking
// back to the blog post. Pinterest has no draft state, so pins go live
// directly — the planner treats that as acceptable for this surface.
// ---------------------------------------------------------------------------

const pinterestAPIBase = "https://api.pinterest.com/v5"

type PinterestService struct {
	token   string
	boardID string
	client  *resty.Client
	log     *charm.Logger
}

func NewPinterestService(token, boardID string) *PinterestService {
	return &PinterestService{
		token:   token,
		boardID: boardID,
		client: resty.New().
			SetTimeout(60 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(3 * time.Second),
		log: logging.Component("pinterest"),
	}
}

func (s *PinterestService) Name() string { return "pinterest" }

func (s *PinterestService) Enabled() bool {
	return s.token != "" && s.boardID != ""
}

type pinterestPinRequest struct {
	BoardID     string             `json:"board_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Link        string             `json:"link"`
	MediaSource pinterestMediaSrc  `json:"media_source"`
}

type pinterestMediaSrc struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

type pinterestPinResponse struct {
	ID string `json:"id"`
}

// CreatePin pins the article's image with a link back to the post.
func (s *PinterestService) CreatePin(ctx context.Context, article *models.Article, imageURL, articleURL string) (*PublishResult, error) {
	if article.Title == nil {
		return nil, fmt.Errorf("article %s has no title", article.ID)
	}
	if imageURL == "" {
		return nil, fmt.Errorf("article %s has no pinterest image", article.ID)
	}

	description := fmt.Sprintf("%s — the full gift guide, with picks for every budget.", *article.Title)

	reqBody := pinterestPinRequest{
		BoardID:     s.boardID,
		Title:       *article.Title,
		Description: description,
		Link:        articleURL,
		MediaSource: pinterestMediaSrc{
			SourceType: "image_url",
			URL:        imageURL,
		},
	}

	var result pinterestPinResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.token).
		SetBody(reqBody).
		SetResult(&result).
		Post(pinterestAPIBase + "/pins")
	if err != nil {
		return nil, fmt.Errorf("pinterest pin failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pinterest returned status %d: %s", resp.StatusCode(), resp.String())
	}

	pinURL := fmt.Sprintf("https://www.pinterest.com/pin/%s/", result.ID)
	s.log.Info("pin created", "article", article.ID, "pin", result.ID)

	return &PublishResult{
		URL:        pinURL,
		ExternalID: result.ID,
	}, nil
}
