// Package narrative produces free-text analyses with an OpenAI chat model.
package narrative

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"stockanalysis/internal/model"
)

// Config configures the OpenAI narrator.
type Config struct {
	APIKey      string
	Model       string  // default gpt-3.5-turbo
	BaseURL     string  // optional, for proxies and tests
	MaxTokens   int     // default 500
	Temperature float32 // default 0.3
}

// OpenAI implements model.Narrator.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAI creates a narrator. It fails only when no API key is set.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: no OpenAI API key configured", model.ErrNarrativeUnavailable)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	n := &OpenAI{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if n.model == "" {
		n.model = openai.GPT3Dot5Turbo
	}
	if n.maxTokens <= 0 {
		n.maxTokens = 500
	}
	if n.temperature <= 0 {
		n.temperature = 0.3
	}
	return n, nil
}

// Narrate asks the model for an analysis of td. Every failure is wrapped in
// ErrNarrativeUnavailable.
func (n *OpenAI) Narrate(ctx context.Context, td *model.TechnicalData) (string, error) {
	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(td)},
		},
		MaxTokens:   n.maxTokens,
		Temperature: n.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrNarrativeUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", model.ErrNarrativeUnavailable)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", model.ErrNarrativeUnavailable)
	}
	return text, nil
}

var _ model.Narrator = (*OpenAI)(nil)
