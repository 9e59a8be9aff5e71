package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// Google Places client
// The outreach hunter searches for local gift-adjacent businesses (florists,
// wedding venues, boutiques) and classifies each into a style bucket so the
// cold email draft can match the business's aesthetic.
// ---------------------------------------------------------------------------

const placesNearbyURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// Nearby Search returns at most 3 pages of 20 results, and a fresh
// next_page_token needs a short pause before it becomes valid.
const (
	placesMaxPages       = 3
	placesPageTokenDelay = 2 * time.Second
)

// TargetCategories are the business types the lead hunter searches for.
var TargetCategories = []string{
	"florist",
	"wedding_venue",
	"gift_shop",
	"jeweller",
	"event_planner",
	"photographer",
}

// CategoryKeyword converts a category slug into a Places search keyword.
func CategoryKeyword(category string) string {
	return strings.ReplaceAll(category, "_", " ")
}

type PlacesService struct {
	apiKey string
	client *resty.Client
	log    *charm.Logger
}

func NewPlacesService(apiKey string) *PlacesService {
	return &PlacesService{
		apiKey: apiKey,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second),
		log: logging.Component("places"),
	}
}

// PlaceResult is one business from a nearby search.
type PlaceResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Types            []string `json:"types"`
}

type placesResponse struct {
	Results       []PlaceResult `json:"results"`
	NextPageToken string        `json:"next_page_token"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
}

// NearbySearch finds businesses matching the keyword around (lat, lng),
// following pagination up to the API's cap.
func (s *PlacesService) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int, keyword string) ([]PlaceResult, error) {
	var all []PlaceResult
	pageToken := ""

	for page := 0; page < placesMaxPages; page++ {
		if pageToken != "" {
			// Tokens are not valid immediately after being issued
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(placesPageTokenDelay):
			}
		}

		params := map[string]string{
			"location": fmt.Sprintf("%f,%f", lat, lng),
			"radius":   fmt.Sprintf("%d", radiusMeters),
			"keyword":  keyword,
			"key":      s.apiKey,
		}
		if pageToken != "" {
			params["pagetoken"] = pageToken
		}

		var result placesResponse
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&result).
			Get(placesNearbyURL)
		if err != nil {
			return all, fmt.Errorf("places search failed: %w", err)
		}
		if resp.IsError() {
			return all, fmt.Errorf("places returned status %d: %s", resp.StatusCode(), resp.String())
		}

		switch result.Status {
		case "OK":
		case "ZERO_RESULTS":
			return all, nil
		case "INVALID_REQUEST":
			// Token not ready yet — treat as end of pagination rather than failing the scan
			s.log.Warn("places page token rejected, stopping pagination", "page", page)
			return all, nil
		default:
			return all, fmt.Errorf("places returned status %q: %s", result.Status, result.ErrorMessage)
		}

		all = append(all, result.Results...)

		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}

	s.log.Info("nearby search complete", "keyword", keyword, "results", len(all))
	return all, nil
}

// ---------------------------------------------------------------------------
// Style classification
// ---------------------------------------------------------------------------

// styleKeywords maps aesthetic buckets to the words that suggest them in a
// business name or address.
var styleKeywords = map[models.BusinessStyle][]string{
	models.StyleLuxury:      {"luxury", "luxe", "premium", "boutique", "couture", "bespoke", "grand", "manor"},
	models.StyleRustic:      {"rustic", "barn", "farm", "country", "cottage", "woodland", "orchard"},
	models.StyleModern:      {"modern", "studio", "loft", "urban", "contemporary", "minimal"},
	models.StyleTraditional: {"traditional", "classic", "heritage", "royal", "vintage", "estate"},
	models.StyleEco:         {"eco", "green", "organic", "sustainable", "natural", "botanical"},
}

// styleOrder fixes the tie-breaking precedence.
var styleOrder = []models.BusinessStyle{
	models.StyleLuxury,
	models.StyleRustic,
	models.StyleModern,
	models.StyleTraditional,
	models.StyleEco,
}

// ClassifyStyle buckets a business by keyword hits across its name and
// vicinity. The highest-scoring style wins; no hits means traditional.
func ClassifyStyle(name, vicinity string) models.BusinessStyle {
	text := strings.ToLower(name + " " + vicinity)

	best := models.StyleTraditional
	bestHits := 0
	for _, style := range styleOrder {
		hits := 0
		for _, kw := range styleKeywords[style] {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = style
			bestHits = hits
		}
	}
	return best
}

// LeadFromPlace converts an API result into a lead row for the given
// search category.
func LeadFromPlace(p PlaceResult, category string) *models.Lead {
	lead := &models.Lead{
		Name:     p.Name,
		Category: category,
		PlaceID:  p.PlaceID,
		Style:    ClassifyStyle(p.Name, p.Vicinity),
		Status:   models.LeadStatusNew,
	}
	if p.Vicinity != "" {
		lead.Address = &p.Vicinity
	}
	if p.Rating > 0 {
		rating := p.Rating
		lead.Rating = &rating
	}
	if p.UserRatingsTotal > 0 {
		total := p.UserRatingsTotal
		lead.UserRatingsTotal = &total
	}
	return lead
}
