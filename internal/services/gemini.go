package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	charm "github.com/charmbracelet/log"

	"github.com/giftloop/megaphone/internal/logging"
)

const (
	geminiImageModel = "gemini-2.5-flash-image"
	geminiTextModel  = "gemini-2.5-flash"
)

// GeminiService is both the fallback text provider and the last-resort
// image generator in the stock photo cascade. It talks to the Generative
// Language REST API directly.
type GeminiService struct {
	apiKey             string
	styleReferencePath string
	styleImageCache    []byte
	styleMimeType      string
	client             *http.Client
	log                *charm.Logger
}

// NewGeminiService creates a Gemini service. styleReferencePath points to
// the brand style sample used to keep generated images on-brand; empty
// means the packaged default.
func NewGeminiService(apiKey, styleReferencePath string) *GeminiService {
	if styleReferencePath == "" {
		styleReferencePath = "assets/style-reference/sample.jpeg"
	}
	return &GeminiService{
		apiKey:             apiKey,
		styleReferencePath: styleReferencePath,
		client:             &http.Client{Timeout: 300 * time.Second},
		log:                logging.Component("gemini"),
	}
}

// Gemini API request/response structures
type GeminiGenerateContentRequest struct {
	Contents          []GeminiContent         `json:"contents"`
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	ResponseMimeType   string             `json:"responseMimeType,omitempty"`
	Temperature        *float64           `json:"temperature,omitempty"`
	ImageConfig        *GeminiImageConfig `json:"imageConfig,omitempty"`
}

type GeminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inlineData,omitempty"`
}

type GeminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GeminiGenerateContentResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

type GeminiCandidate struct {
	Content GeminiResponseContent `json:"content"`
}

type GeminiResponseContent struct {
	Parts []GeminiResponsePart `json:"parts"`
}

type GeminiResponsePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inlineData,omitempty"`
}

// ---------------------------------------------------------------------------
// Text provider
// ---------------------------------------------------------------------------

// Name implements TextProvider.
func (s *GeminiService) Name() string { return "gemini" }

// Complete runs a plain text generation and returns the raw answer.
func (s *GeminiService) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := GeminiGenerateContentRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: user}}},
		},
	}
	if system != "" {
		reqBody.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: system}}}
	}

	return s.generateText(ctx, reqBody)
}

// CompleteJSON runs a generation in JSON mode and unmarshals into out.
func (s *GeminiService) CompleteJSON(ctx context.Context, system, user string, out any) error {
	reqBody := GeminiGenerateContentRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: user}}},
		},
		GenerationConfig: &GeminiGenerationConfig{
			ResponseMimeType: "application/json",
		},
	}
	if system != "" {
		reqBody.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: system}}}
	}

	raw, err := s.generateText(ctx, reqBody)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.log.Error("JSON parse failed", "err", err, "raw", truncateString(raw, 2000))
		return fmt.Errorf("failed to parse gemini response: %w", err)
	}

	return nil
}

func (s *GeminiService) generateText(ctx context.Context, reqBody GeminiGenerateContentRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", geminiTextModel, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var geminiResp GeminiGenerateContentResponse
	if err := json.Unmarshal(bodyBytes, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var text bytes.Buffer
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text parts")
	}

	return text.String(), nil
}

// ---------------------------------------------------------------------------
// Image generation
// ---------------------------------------------------------------------------

// GenerateImage generates a single image with the brand style reference.
// aspectRatio must be one of the API-supported ratios ("1:1", "3:4", "4:3",
// "9:16", "16:9"); callers map their pixel specs to the nearest one.
// Each call is independent — safe for parallel execution.
func (s *GeminiService) GenerateImage(ctx context.Context, basePrompt, aspectRatio string) ([]byte, error) {
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	styleData, mimeType, err := s.loadStyleReferenceImage()
	if err != nil {
		s.log.Warn("could not load style reference image, proceeding without", "err", err)
		return s.generateWithoutStyleRef(ctx, basePrompt, aspectRatio)
	}

	promptText := composeImagePrompt(basePrompt, aspectRatio)

	// Style reference image + text prompt
	parts := []GeminiPart{
		{Text: promptText},
		{
			InlineData: &GeminiInlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(styleData),
			},
		},
	}

	reqBody := GeminiGenerateContentRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: parts},
		},
		GenerationConfig: &GeminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig: &GeminiImageConfig{
				AspectRatio: aspectRatio,
			},
		},
	}

	return s.doGenerateImage(ctx, reqBody)
}

// generateWithoutStyleRef generates an image using only the text prompt (fallback if no style ref)
func (s *GeminiService) generateWithoutStyleRef(ctx context.Context, basePrompt, aspectRatio string) ([]byte, error) {
	promptText := composeImagePrompt(basePrompt, aspectRatio)

	reqBody := GeminiGenerateContentRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: promptText}}},
		},
		GenerationConfig: &GeminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig: &GeminiImageConfig{
				AspectRatio: aspectRatio,
			},
		},
	}

	return s.doGenerateImage(ctx, reqBody)
}

func (s *GeminiService) loadStyleReferenceImage() ([]byte, string, error) {
	// Return cached if available
	if s.styleImageCache != nil {
		return s.styleImageCache, s.styleMimeType, nil
	}

	path := s.styleReferencePath

	paths := []string{
		path,
		filepath.Join(".", path),
		filepath.Join("/app", path),
	}

	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			s.log.Info("loaded style reference image", "path", p, "bytes", len(data))
			break
		}
	}

	if err != nil {
		return nil, "", fmt.Errorf("could not load style reference from %v: %w", paths, err)
	}

	mimeType := "image/jpeg"
	if filepath.Ext(path) == ".png" {
		mimeType = "image/png"
	}

	// Cache it
	s.styleImageCache = data
	s.styleMimeType = mimeType

	return data, mimeType, nil
}

func (s *GeminiService) doGenerateImage(ctx context.Context, reqBody GeminiGenerateContentRequest) ([]byte, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", geminiImageModel, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var geminiResp GeminiGenerateContentResponse
	if err := json.Unmarshal(bodyBytes, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	var textParts []string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			imageData, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 image: %w", err)
			}
			return imageData, nil
		}
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}

	if len(textParts) > 0 {
		return nil, fmt.Errorf("gemini returned text instead of image: %s", textParts[0][:min(200, len(textParts[0]))])
	}
	return nil, fmt.Errorf("no image data found in response (got %d parts, none with inlineData)", len(geminiResp.Candidates[0].Content.Parts))
}

// composeImagePrompt builds the full prompt: style reference instruction + scene
// description. The heavy lifting for style is done by the sample image passed as
// inline data — the text prompt only reminds the model to follow it.
func composeImagePrompt(basePrompt, aspectRatio string) string {
	var prompt bytes.Buffer

	prompt.WriteString("STYLE REFERENCE: Use the attached reference image as the style guide. Copy ONLY the artistic style, lighting, color palette, and mood from the reference image. Do NOT copy the subject, people, or scene from the reference.\n\n")

	prompt.WriteString("SCENE TO DEPICT:\n")
	prompt.WriteString(basePrompt)

	orientLabel := "Square"
	switch aspectRatio {
	case "16:9", "4:3":
		orientLabel = "Landscape"
	case "9:16", "3:4":
		orientLabel = "Portrait"
	}
	prompt.WriteString(fmt.Sprintf("\n\nOutput: %s %s, photographic quality, no text or watermarks.", orientLabel, aspectRatio))

	return prompt.String()
}
