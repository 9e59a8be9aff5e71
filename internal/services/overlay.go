package services

import (
	"context"
	"fmt"
	"html"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// Overlay card rendering
// Hook and CTA cards are rendered from HTML/CSS templates via the
// htmlcsstoimage.com API, returning transparent PNGs that ffmpeg composites
// onto the video. When the service isn't configured the renderer reports
// itself disabled and the assembly pipeline falls back to drawtext.
// ---------------------------------------------------------------------------

const hctiEndpoint = "https://hcti.io/v1/image"

// CardStyle selects the overlay look. Styles map to platforms so a TikTok
// render doesn't look like a YouTube one.
type CardStyle string

const (
	StyleTikTok    CardStyle = "tiktok"
	StyleInstagram CardStyle = "instagram"
	StyleYouTube   CardStyle = "youtube"
	StyleMinimal   CardStyle = "minimal"
)

// StyleForPlatform maps a target platform onto its card style.
func StyleForPlatform(p models.Platform) CardStyle {
	switch p {
	case models.PlatformTikTok:
		return StyleTikTok
	case models.PlatformInstagram:
		return StyleInstagram
	case models.PlatformYouTube:
		return StyleYouTube
	default:
		return StyleMinimal
	}
}

type OverlayService struct {
	userID string
	apiKey string
	client *resty.Client
	log    *charm.Logger
}

func NewOverlayService(userID, apiKey string) *OverlayService {
	client := resty.New().
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &OverlayService{
		userID: userID,
		apiKey: apiKey,
		client: client,
		log:    logging.Component("overlay"),
	}
}

// Enabled reports whether the HTML renderer is configured. Callers use the
// drawtext fallback when it isn't.
func (s *OverlayService) Enabled() bool {
	return s.userID != "" && s.apiKey != ""
}

// RenderHookCard renders the opening hook as a transparent PNG card.
func (s *OverlayService) RenderHookCard(ctx context.Context, text string, platform models.Platform) ([]byte, error) {
	style := StyleForPlatform(platform)
	htmlBody := fmt.Sprintf(`<div class="card hook">%s</div>`, html.EscapeString(text))
	return s.render(ctx, htmlBody, cardCSS[style], 900, 420)
}

// RenderCTACard renders the closing call-to-action as a transparent PNG card.
func (s *OverlayService) RenderCTACard(ctx context.Context, text string, platform models.Platform) ([]byte, error) {
	style := StyleForPlatform(platform)
	htmlBody := fmt.Sprintf(`<div class="card cta">%s</div>`, html.EscapeString(text))
	return s.render(ctx, htmlBody, cardCSS[style], 900, 260)
}

type hctiResponse struct {
	URL string `json:"url"`
}

// render submits HTML/CSS to the image API and downloads the resulting PNG.
func (s *OverlayService) render(ctx context.Context, htmlBody, css string, width, height int) ([]byte, error) {
	var result hctiResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.userID, s.apiKey).
		SetBody(map[string]any{
			"html":            htmlBody,
			"css":             css,
			"viewport_width":  width,
			"viewport_height": height,
			"device_scale":    1,
		}).
		SetResult(&result).
		Post(hctiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("card render request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("card render returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if result.URL == "" {
		return nil, fmt.Errorf("card render returned no image URL")
	}

	s.log.Debug("card rendered", "url", result.URL)

	// Fetch the PNG itself
	imgResp, err := s.client.R().
		SetContext(ctx).
		Get(result.URL)
	if err != nil {
		return nil, fmt.Errorf("card download failed: %w", err)
	}

	if imgResp.IsError() {
		return nil, fmt.Errorf("card download returned status %d", imgResp.StatusCode())
	}

	data := imgResp.Body()
	if len(data) == 0 {
		return nil, fmt.Errorf("card download returned empty body")
	}

	return data, nil
}

// cardCSS holds the per-style stylesheet. All styles render on a
// transparent page so the PNG composites cleanly.
var cardCSS = map[CardStyle]string{
	StyleTikTok: `
body { background: transparent; margin: 0; display: flex; align-items: center; justify-content: center; height: 100vh; }
.card { font-family: 'Arial Black', sans-serif; font-weight: 900; font-size: 56px; color: #fff; text-align: center;
  padding: 28px 40px; line-height: 1.2; transform: rotate(-2deg);
  text-shadow: 3px 3px 0 #000, -3px -3px 0 #000, 3px -3px 0 #000, -3px 3px 0 #000; }
.cta { font-size: 40px; }`,

	StyleInstagram: `
body { background: transparent; margin: 0; display: flex; align-items: center; justify-content: center; height: 100vh; }
.card { font-family: 'Helvetica Neue', sans-serif; font-weight: 800; font-size: 52px; color: #fff; text-align: center;
  padding: 30px 48px; line-height: 1.25; border-radius: 28px;
  background: linear-gradient(135deg, #833ab4, #fd1d1d, #fcb045); }
.cta { font-size: 38px; border-radius: 40px; }`,

	StyleYouTube: `
body { background: transparent; margin: 0; display: flex; align-items: center; justify-content: center; height: 100vh; }
.card { font-family: 'Roboto', sans-serif; font-weight: 700; font-size: 52px; color: #111; text-align: center;
  padding: 30px 44px; line-height: 1.25; background: #fff; border-radius: 12px;
  border-left: 14px solid #ff0000; box-shadow: 0 8px 24px rgba(0,0,0,0.35); }
.cta { font-size: 38px; }`,

	StyleMinimal: `
body { background: transparent; margin: 0; display: flex; align-items: center; justify-content: center; height: 100vh; }
.card { font-family: 'Helvetica Neue', sans-serif; font-weight: 600; font-size: 48px; color: #fff; text-align: center;
  padding: 26px 40px; line-height: 1.3; background: rgba(0,0,0,0.65); border-radius: 18px; }
.cta { font-size: 36px; }`,
}
