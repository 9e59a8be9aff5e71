package services

import (
	"context"
	"encoding/json"
	"fmt"

	charm "github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/giftloop/megaphone/internal/logging"
)

// OpenAIService is the primary text provider. It exposes the small
// completion surface the generation cascade needs; prompt construction
// lives with the callers in textgen and blog.
type OpenAIService struct {
	client *openai.Client
	model  string
	log    *charm.Logger
}

func NewOpenAIService(apiKey, model string) *OpenAIService {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIService{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logging.Component("openai"),
	}
}

// Name implements TextProvider.
func (s *OpenAIService) Name() string { return "openai" }

// Complete runs a plain chat completion and returns the raw text answer.
func (s *OpenAIService) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		Temperature: 0.8,
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON runs a chat completion in JSON mode and unmarshals the
// answer into out. The raw response is logged when parsing fails so bad
// model output can be diagnosed from the logs alone.
func (s *OpenAIService) CompleteJSON(ctx context.Context, system, user string, out any) error {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.8,
	})
	if err != nil {
		return fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response from openai")
	}

	rawContent := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(rawContent), out); err != nil {
		s.log.Error("JSON parse failed", "err", err, "raw", truncateString(rawContent, 2000))
		return fmt.Errorf("failed to parse openai response: %w", err)
	}

	return nil
}

// truncateString truncates a string to maxLen and appends "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
