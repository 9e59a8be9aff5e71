package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	charm "github.com/charmbracelet/log"

	"github.com/giftloop/megaphone/internal/logging"
)

// ---------------------------------------------------------------------------
// xAI Grok Imagine b-roll generation
// Second rung of the b-roll backfill cascade. Follows a deferred request
// pattern: submit generation → poll by request_id → download.
// ---------------------------------------------------------------------------

const (
	xaiBaseURL           = "https://api.x.ai/v1"
	xaiVideoModel        = "grok-imagine-video"
	xaiInitialDelay      = 15 * time.Second // Wait before first poll (videos typically take 30-40s)
	xaiPollMinInterval   = 5 * time.Second  // Start polling every 5s
	xaiPollMaxInterval   = 20 * time.Second // Cap at 20s between polls
	xaiPollBackoffFactor = 1.5              // Multiply interval by 1.5 each attempt
	xaiMaxPollDuration   = 5 * time.Minute  // Hard timeout per clip
	xaiBrollDuration     = 6                // seconds — backfill segments are short
	xaiAspect            = "9:16"           // portrait for mobile
	xaiResolution        = "720p"           // 720p or 480p supported
)

type XAIVideoService struct {
	apiKey     string
	enabled    bool
	httpClient *http.Client
	log        *charm.Logger
}

// NewXAIVideoService creates the xAI b-roll generator.
func NewXAIVideoService(apiKey string, enabled bool) *XAIVideoService {
	return &XAIVideoService{
		apiKey:  apiKey,
		enabled: enabled,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // Timeout for individual HTTP calls, not the full poll cycle
		},
		log: logging.Component("xai"),
	}
}

func (s *XAIVideoService) Name() string { return "xai" }

func (s *XAIVideoService) Enabled() bool {
	return s.enabled && s.apiKey != ""
}

// ---------------------------------------------------------------------------
// Request / Response types
// ---------------------------------------------------------------------------

// xaiGenerationRequest is the body for POST /v1/videos/generations
type xaiGenerationRequest struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	Duration    int    `json:"duration,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
}

// xaiGenerationResponse is the response from POST /v1/videos/generations
type xaiGenerationResponse struct {
	RequestID string `json:"request_id"`
}

// xaiVideoResult is the unified response from GET /v1/videos/{request_id}.
//
// xAI returns two different shapes depending on state:
//   - Pending: {"status":"pending"}
//   - Completed: {"video":{"url":"...","duration":8,"respect_moderation":true},"model":"grok-imagine-video"}
//     (note: no "status" field when completed — status will be "")
//   - Failed: {"status":"failed","error":"..."}
type xaiVideoResult struct {
	Status string          `json:"status"`          // "pending", "failed", or "" (completed)
	Video  *xaiVideoOutput `json:"video,omitempty"` // Present when generation is complete
	Model  string          `json:"model,omitempty"` // Present when generation is complete
	Error  string          `json:"error"`           // Error message if failed
}

// xaiVideoOutput is the nested video object in a completed generation response.
type xaiVideoOutput struct {
	URL               string `json:"url"`
	Duration          int    `json:"duration"`
	RespectModeration bool   `json:"respect_moderation"`
}

// buildXAIPrompt wraps the scene description with b-roll style directions.
func buildXAIPrompt(scenePrompt string) string {
	return fmt.Sprintf(`%s

Visual style: premium stock footage look. Warm natural light, shallow depth of field, soft background. No recognizable faces, no readable logos or text.

Generate natural, cinematic movement that brings the scene to life. Silent video only — no generated audio or dialogue.`, scenePrompt)
}

// GenerateClip generates one b-roll clip from a scene description and
// returns the raw MP4 bytes. The async operation is polled internally.
func (s *XAIVideoService) GenerateClip(ctx context.Context, scenePrompt string) ([]byte, error) {
	enhancedPrompt := buildXAIPrompt(scenePrompt)

	// Step 1: Submit generation request
	reqBody := xaiGenerationRequest{
		Prompt:      enhancedPrompt,
		Model:       xaiVideoModel,
		Duration:    xaiBrollDuration,
		AspectRatio: xaiAspect,
		Resolution:  xaiResolution,
	}

	s.log.Info("starting b-roll generation", "promptLen", len(scenePrompt), "duration", xaiBrollDuration)

	requestID, err := s.submitGeneration(ctx, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to submit video generation: %w", err)
	}

	s.log.Debug("generation submitted", "request_id", requestID)

	// Step 2: Poll for completion
	result, err := s.pollForResult(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.log.Debug("video ready, downloading", "duration", result.Video.Duration)

	// Step 3: Download the video from the returned URL
	videoBytes, err := s.downloadVideo(ctx, result.Video.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated video: %w", err)
	}

	if len(videoBytes) == 0 {
		return nil, fmt.Errorf("downloaded video is empty (0 bytes)")
	}

	s.log.Info("b-roll generated", "bytes", len(videoBytes))
	return videoBytes, nil
}

// submitGeneration sends the initial video generation request and returns the request_id.
func (s *XAIVideoService) submitGeneration(ctx context.Context, reqBody xaiGenerationRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", xaiBaseURL+"/videos/generations", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("xAI returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp xaiGenerationResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse generation response: %w (body: %s)", err, string(body))
	}

	if genResp.RequestID == "" {
		return "", fmt.Errorf("no request_id in generation response: %s", string(body))
	}

	return genResp.RequestID, nil
}

// pollForResult polls GET /v1/videos/{request_id} until the video is ready or an error occurs.
//
// Polling strategy: exponential backoff starting at 5s, scaling by 1.5x up to a 20s cap.
// An initial delay of 15s avoids wasting API calls on guaranteed "pending" responses.
// Hard timeout: 5 minutes per clip.
func (s *XAIVideoService) pollForResult(ctx context.Context, requestID string) (*xaiVideoResult, error) {
	deadline := time.Now().Add(xaiMaxPollDuration)
	pollCount := 0
	currentInterval := xaiPollMinInterval

	// The first 15s are guaranteed to be "pending", skip them
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("video generation cancelled during initial wait: %w", ctx.Err())
	case <-time.After(xaiInitialDelay):
	}

	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("video generation timed out after %v (polled %d times, request_id=%s)", xaiMaxPollDuration, pollCount, requestID)
		}

		pollCount++

		result, err := s.getVideoResult(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll video result (attempt %d): %w", pollCount, err)
		}

		// When complete, xAI returns a "video" object with no "status" field.
		// When pending, it returns {"status":"pending"} with no "video" object.
		if result.Video != nil && result.Video.URL != "" {
			s.log.Debug("poll complete", "n", pollCount, "videoDuration", result.Video.Duration)
			return result, nil
		}

		s.log.Debug("poll pending", "n", pollCount, "status", result.Status, "nextIn", currentInterval)

		switch result.Status {
		case "failed":
			errMsg := result.Error
			if errMsg == "" {
				errMsg = "unknown error"
			}
			return nil, fmt.Errorf("video generation failed: %s (request_id=%s)", errMsg, requestID)

		default:
			// Still pending — wait with exponential backoff before next poll
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("video generation cancelled: %w", ctx.Err())
			case <-time.After(currentInterval):
			}

			// Increase interval: 5s → 7.5s → 11.25s → 16.8s → 20s (capped)
			next := time.Duration(float64(currentInterval) * xaiPollBackoffFactor)
			if next > xaiPollMaxInterval {
				next = xaiPollMaxInterval
			}
			currentInterval = next
		}
	}
}

// getVideoResult fetches the current status of a video generation request.
func (s *XAIVideoService) getVideoResult(ctx context.Context, requestID string) (*xaiVideoResult, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/videos/%s", xaiBaseURL, requestID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Accept both 200 (completed) and 202 (still processing) as valid poll responses.
	// xAI returns 202 with {"status":"pending"} while the video is being generated.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("xAI returned status %d: %s", resp.StatusCode, string(body))
	}

	var result xaiVideoResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse video result: %w (body: %s)", err, string(body))
	}

	return &result, nil
}

// downloadVideo fetches the video bytes from the given URL.
func (s *XAIVideoService) downloadVideo(ctx context.Context, videoURL string) ([]byte, error) {
	// Use a longer timeout for video download (videos can be large)
	downloadClient := &http.Client{Timeout: 120 * time.Second}

	req, err := http.NewRequestWithContext(ctx, "GET", videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read video data: %w", err)
	}

	return data, nil
}
