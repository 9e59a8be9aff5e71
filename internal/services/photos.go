package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"math/rand"
	"os"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/sunshineplan/imgconv"

	"github.com/giftloop/megaphone/internal/logging"
)

// ---------------------------------------------------------------------------
// Stock photo cascade
// Images are sourced Unsplash → Pexels → Pixabay, falling back to Gemini
// generation when every stock provider comes up empty. Results are
// cover-cropped to the requested spec and watermarked with the brand logo.
// ---------------------------------------------------------------------------

// ImageSpec names one target render size.
type ImageSpec struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageSpecs is the standard set rendered for every image set.
var ImageSpecs = []ImageSpec{
	{Name: "hero", Width: 1200, Height: 630},
	{Name: "instagram", Width: 1080, Height: 1080},
	{Name: "pinterest", Width: 1000, Height: 1500},
	{Name: "youtube", Width: 1920, Height: 1080},
	{Name: "podcast", Width: 3000, Height: 3000},
}

// SpecByName looks up a standard spec.
func SpecByName(name string) (ImageSpec, bool) {
	for _, s := range ImageSpecs {
		if s.Name == name {
			return s, true
		}
	}
	return ImageSpec{}, false
}

// Orientation returns the stock-provider orientation word for the spec.
func (s ImageSpec) Orientation() string {
	switch {
	case s.Width > s.Height:
		return "landscape"
	case s.Height > s.Width:
		return "portrait"
	default:
		return "square"
	}
}

// GeminiAspectRatio maps the spec onto the nearest ratio the image model
// supports.
func (s ImageSpec) GeminiAspectRatio() string {
	supported := map[string]float64{
		"1:1":  1.0,
		"4:3":  4.0 / 3.0,
		"3:4":  3.0 / 4.0,
		"16:9": 16.0 / 9.0,
		"9:16": 9.0 / 16.0,
	}

	target := float64(s.Width) / float64(s.Height)
	best := "1:1"
	bestDiff := math.MaxFloat64
	for name, ratio := range supported {
		if diff := math.Abs(ratio - target); diff < bestDiff {
			bestDiff = diff
			best = name
		}
	}
	return best
}

type PhotoService struct {
	unsplashKey string
	pexelsKey   string
	pixabayKey  string
	gemini      *GeminiService // last-resort generator, may be nil
	client      *resty.Client
	watermark   image.Image // nil when no logo is configured
	wmOpacity   float64
	log         *charm.Logger
}

func NewPhotoService(unsplashKey, pexelsKey, pixabayKey string, gemini *GeminiService, watermarkPath string, watermarkOpacity float64) *PhotoService {
	s := &PhotoService{
		unsplashKey: unsplashKey,
		pexelsKey:   pexelsKey,
		pixabayKey:  pixabayKey,
		gemini:      gemini,
		client: resty.New().
			SetTimeout(60 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second),
		wmOpacity: watermarkOpacity,
		log:       logging.Component("photos"),
	}

	if watermarkPath != "" {
		mark, err := imgconv.Open(watermarkPath)
		if err != nil {
			s.log.Warn("could not load watermark, images will ship unmarked", "path", watermarkPath, "err", err)
		} else {
			s.watermark = mark
		}
	}

	return s
}

// FetchImage runs the provider cascade for a query and returns the raw
// image bytes plus the provider that served them. rng picks among the top
// results so repeated sets don't all use the same photo.
func (s *PhotoService) FetchImage(ctx context.Context, query string, spec ImageSpec, rng *rand.Rand) ([]byte, string, error) {
	type provider struct {
		name  string
		fetch func(context.Context, string, ImageSpec, *rand.Rand) ([]byte, error)
	}

	providers := []provider{}
	if s.unsplashKey != "" {
		providers = append(providers, provider{"unsplash", s.fetchUnsplash})
	}
	if s.pexelsKey != "" {
		providers = append(providers, provider{"pexels", s.fetchPexels})
	}
	if s.pixabayKey != "" {
		providers = append(providers, provider{"pixabay", s.fetchPixabay})
	}

	var lastErr error
	for _, p := range providers {
		data, err := p.fetch(ctx, query, spec, rng)
		if err != nil {
			s.log.Warn("stock provider failed, trying next", "provider", p.name, "query", query, "err", err)
			lastErr = err
			continue
		}
		s.log.Info("image fetched", "provider", p.name, "query", query, "bytes", len(data))
		return data, p.name, nil
	}

	// Every stock source struck out — generate one
	if s.gemini != nil {
		prompt := fmt.Sprintf("A beautifully styled lifestyle photograph for a gift guide about %q. Warm natural light, tasteful composition, no people's faces.", query)
		data, err := s.gemini.GenerateImage(ctx, prompt, spec.GeminiAspectRatio())
		if err != nil {
			return nil, "", fmt.Errorf("all image sources failed, generation included: %w", err)
		}
		s.log.Info("image generated as fallback", "query", query, "bytes", len(data))
		return data, "gemini", nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no image providers configured")
	}
	return nil, "", fmt.Errorf("all image sources failed: %w", lastErr)
}

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Full    string `json:"full"`
		} `json:"urls"`
	} `json:"results"`
}

func (s *PhotoService) fetchUnsplash(ctx context.Context, query string, spec ImageSpec, rng *rand.Rand) ([]byte, error) {
	orientation := spec.Orientation()
	if orientation == "square" {
		orientation = "squarish"
	}

	var result unsplashSearchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Client-ID "+s.unsplashKey).
		SetQueryParams(map[string]string{
			"query":       query,
			"orientation": orientation,
			"per_page":    "10",
		}).
		SetResult(&result).
		Get("https://api.unsplash.com/search/photos")
	if err != nil {
		return nil, fmt.Errorf("unsplash search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unsplash returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("unsplash returned no results for %q", query)
	}

	pick := result.Results[rng.Intn(len(result.Results))]
	url := pick.URLs.Regular
	if url == "" {
		url = pick.URLs.Full
	}
	return s.downloadImage(ctx, url)
}

type pexelsSearchResponse struct {
	Photos []struct {
		Src struct {
			Large2x  string `json:"large2x"`
			Original string `json:"original"`
		} `json:"src"`
	} `json:"photos"`
}

func (s *PhotoService) fetchPexels(ctx context.Context, query string, spec ImageSpec, rng *rand.Rand) ([]byte, error) {
	var result pexelsSearchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", s.pexelsKey).
		SetQueryParams(map[string]string{
			"query":       query,
			"orientation": spec.Orientation(),
			"per_page":    "10",
		}).
		SetResult(&result).
		Get("https://api.pexels.com/v1/search")
	if err != nil {
		return nil, fmt.Errorf("pexels search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pexels returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Photos) == 0 {
		return nil, fmt.Errorf("pexels returned no results for %q", query)
	}

	pick := result.Photos[rng.Intn(len(result.Photos))]
	url := pick.Src.Large2x
	if url == "" {
		url = pick.Src.Original
	}
	return s.downloadImage(ctx, url)
}

type pixabaySearchResponse struct {
	Hits []struct {
		LargeImageURL string `json:"largeImageURL"`
	} `json:"hits"`
}

func (s *PhotoService) fetchPixabay(ctx context.Context, query string, spec ImageSpec, rng *rand.Rand) ([]byte, error) {
	orientation := "horizontal"
	if spec.Orientation() == "portrait" {
		orientation = "vertical"
	}

	var result pixabaySearchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":         s.pixabayKey,
			"q":           query,
			"image_type":  "photo",
			"orientation": orientation,
			"per_page":    "10",
		}).
		SetResult(&result).
		Get("https://pixabay.com/api/")
	if err != nil {
		return nil, fmt.Errorf("pixabay search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pixabay returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Hits) == 0 {
		return nil, fmt.Errorf("pixabay returned no results for %q", query)
	}

	pick := result.Hits[rng.Intn(len(result.Hits))]
	return s.downloadImage(ctx, pick.LargeImageURL)
}

func (s *PhotoService) downloadImage(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode())
	}
	data := resp.Body()
	if len(data) == 0 {
		return nil, fmt.Errorf("image download returned empty body")
	}
	return data, nil
}

// ProcessForSpec cover-crops the image to the spec's exact dimensions and
// applies the brand watermark. Output is JPEG.
func (s *PhotoService) ProcessForSpec(data []byte, spec ImageSpec) ([]byte, error) {
	img, err := imgconv.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = coverCrop(img, spec.Width, spec.Height)

	if s.watermark != nil {
		img = s.applyWatermark(img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 88}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

// coverCrop scales the image so it fully covers width x height, then
// center-crops the overflow.
func coverCrop(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}

	scale := math.Max(float64(width)/float64(srcW), float64(height)/float64(srcH))
	scaledW := int(math.Ceil(float64(srcW) * scale))
	scaledH := int(math.Ceil(float64(srcH) * scale))

	scaled := imgconv.Resize(img, &imgconv.ResizeOption{
		Width:  scaledW,
		Height: scaledH,
	})

	// Center crop the overflow
	offX := (scaledW - width) / 2
	offY := (scaledH - height) / 2

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), scaled, image.Pt(scaled.Bounds().Min.X+offX, scaled.Bounds().Min.Y+offY), draw.Src)
	return out
}

// applyWatermark places the brand mark in the lower-right corner, scaled to
// about 12% of the image width.
func (s *PhotoService) applyWatermark(img image.Image) image.Image {
	base := img.Bounds()
	markW := base.Dx() / 8
	if markW < 48 {
		markW = 48
	}

	mark := imgconv.Resize(s.watermark, &imgconv.ResizeOption{Width: markW})

	margin := base.Dx() / 40
	// Offset is measured from the base image center to the mark center
	offX := base.Dx()/2 - mark.Bounds().Dx()/2 - margin
	offY := base.Dy()/2 - mark.Bounds().Dy()/2 - margin

	opacity := uint8(math.Round(s.wmOpacity * 255))
	if opacity == 0 {
		opacity = 90
	}

	return imgconv.Watermark(img, &imgconv.WatermarkOption{
		Mark:    mark,
		Opacity: opacity,
		Offset:  image.Pt(offX, offY),
	})
}

// SaveImage writes processed image bytes to a local path, creating the
// file fresh each time.
func (s *PhotoService) SaveImage(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
