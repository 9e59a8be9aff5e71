package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	charm "github.com/charmbracelet/log"
	"google.golang.org/genai"

	"github.com/giftloop/megaphone/internal/logging"
)

// ---------------------------------------------------------------------------
// Veo b-roll generation
// Uses the Google Gen AI SDK to generate short b-roll clips when a source
// clip category has nothing usable. Generation is slow and metered, so it
// only runs as backfill — never for regular assembly.
// ---------------------------------------------------------------------------

const (
	defaultVeoModel    = "veo-3.1-generate-preview"
	veoPollInterval    = 10 * time.Second
	veoMaxPollDuration = 5 * time.Minute // Max time to wait for a single video
)

type VeoService struct {
	apiKey  string
	model   string
	enabled bool
	log     *charm.Logger
}

// NewVeoService creates the Veo b-roll generator. apiKey is the Gemini API
// key (the same key serves both); model empty means the current default.
func NewVeoService(apiKey, model string, enabled bool) *VeoService {
	if model == "" {
		model = defaultVeoModel
	}
	return &VeoService{
		apiKey:  apiKey,
		model:   model,
		enabled: enabled,
		log:     logging.Component("veo"),
	}
}

func (s *VeoService) Name() string { return "veo" }

func (s *VeoService) Enabled() bool {
	return s.enabled && s.apiKey != ""
}

// buildVeoPrompt wraps the scene description with style and motion
// directions tuned for stock-style b-roll, and heads off the safety
// filters that trip on identifiable people.
func buildVeoPrompt(scenePrompt string) string {
	return fmt.Sprintf(`%s

Visual style direction: Shot like premium stock footage. Warm natural light, shallow depth of field, soft bokeh background. Colors slightly warm and inviting. The clip should look like it belongs in a polished lifestyle video.

Motion direction: Subtle, natural, realistic movement only. Gentle camera drift or slow push-in. Hands moving naturally, fabric settling, ribbon curling, paper unfolding. No sudden cuts, no jerky motion, no morphing.

Important: Do not show any recognizable faces. Frame subjects from the neck down or from behind. All scenes are generic and unbranded — no readable logos or text.

No generated audio or dialogue. Silent video only.`, scenePrompt)
}

// GenerateClip generates one b-roll clip from a scene description and
// returns the raw MP4 bytes. The async operation is polled internally;
// this blocks the calling goroutine, which suits the worker model where
// each backfill runs in its own goroutine.
func (s *VeoService) GenerateClip(ctx context.Context, scenePrompt string) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	enhancedPrompt := buildVeoPrompt(scenePrompt)

	// Portrait 9:16 to match the assembly pipeline's output frame
	config := &genai.GenerateVideosConfig{
		AspectRatio:      "9:16",
		Resolution:       "1080p",
		PersonGeneration: "allow_adult",
		NumberOfVideos:   1,
	}

	s.log.Info("starting b-roll generation", "model", s.model, "promptLen", len(scenePrompt))

	operation, err := client.Models.GenerateVideos(ctx, s.model, enhancedPrompt, nil, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}

	s.log.Debug("operation started", "name", operation.Name)

	// Poll until done, cancelled, or timed out
	deadline := time.Now().Add(veoMaxPollDuration)
	pollCount := 0
	for !operation.Done {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("video generation timed out after %v (polled %d times)", veoMaxPollDuration, pollCount)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("video generation cancelled: %w", ctx.Err())
		case <-time.After(veoPollInterval):
		}

		pollCount++
		operation, err = client.Operations.GetVideosOperation(ctx, operation, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll operation (attempt %d): %w", pollCount, err)
		}

		s.log.Debug("poll", "n", pollCount, "done", operation.Done)
	}

	// Operation-level errors (invalid request, quota exceeded, ...)
	if operation.Error != nil && len(operation.Error) > 0 {
		errJSON, _ := json.Marshal(operation.Error)
		return nil, fmt.Errorf("video generation operation failed: %s", string(errJSON))
	}

	if operation.Response == nil {
		if operation.Metadata != nil {
			metaJSON, _ := json.Marshal(operation.Metadata)
			s.log.Warn("completed operation carried no response", "metadata", string(metaJSON))
		}
		return nil, fmt.Errorf("no response in completed operation after %d polls (operation: %s)", pollCount, operation.Name)
	}

	// Videos blocked by RAI (Responsible AI) safety filters
	if operation.Response.RAIMediaFilteredCount > 0 {
		reasons := "unknown"
		if len(operation.Response.RAIMediaFilteredReasons) > 0 {
			reasons = strings.Join(operation.Response.RAIMediaFilteredReasons, ", ")
		}
		return nil, fmt.Errorf("video blocked by safety filters: %d video(s) filtered, reasons: %s", operation.Response.RAIMediaFilteredCount, reasons)
	}

	if len(operation.Response.GeneratedVideos) == 0 {
		respJSON, _ := json.Marshal(operation.Response)
		return nil, fmt.Errorf("no videos in response (full response: %s)", string(respJSON))
	}

	video := operation.Response.GeneratedVideos[0]
	if video.Video == nil {
		return nil, fmt.Errorf("generated video object is nil")
	}

	s.log.Debug("video ready, downloading")

	downloadURI := genai.NewDownloadURIFromVideo(video.Video)
	videoBytes, err := client.Files.Download(ctx, downloadURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated video: %w", err)
	}

	if len(videoBytes) == 0 {
		return nil, fmt.Errorf("downloaded video is empty (0 bytes)")
	}

	s.log.Info("b-roll generated", "bytes", len(videoBytes), "polls", pollCount)

	return videoBytes, nil
}
