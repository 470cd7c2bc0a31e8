package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultAnthropicModel is used when no model is configured.
	DefaultAnthropicModel = "claude-sonnet-4-20250514"

	// anthropicAPITimeout is the maximum time to wait for an API response.
	anthropicAPITimeout = 3 * time.Minute

	// anthropicMaxTokens is the response budget when the request has none.
	anthropicMaxTokens = 4096
)

// Anthropic is a Channel backed by the Anthropic Messages API.
type Anthropic struct {
	apiKey string
	model  string
	logger *slog.Logger
}

// NewAnthropic creates an Anthropic-backed channel.
func NewAnthropic(apiKey, model string, logger *slog.Logger) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
}

// Name identifies this channel in logs.
func (a *Anthropic) Name() string {
	return "anthropic"
}

// Invoke sends the request to the Messages API and returns the first text
// block of the response.
func (a *Anthropic) Invoke(ctx context.Context, req Request) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(a.apiKey))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, anthropicAPITimeout)
	defer cancel()

	message, err := retryWithBackoff(timeoutCtx, a.logger, "anthropic messages", func() (*anthropic.Message, error) {
		return client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
			Model:       anthropic.F(anthropic.Model(a.model)),
			MaxTokens:   anthropic.F(int64(maxTokens)),
			Temperature: anthropic.F(req.Temperature),
			System: anthropic.F([]anthropic.TextBlockParam{
				anthropic.NewTextBlock(req.SystemPrompt),
			}),
			Messages: anthropic.F([]anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
			}),
		})
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	a.logger.Info("anthropic API usage",
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens,
	)

	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			return block.Text, nil
		}
	}

	return "", errors.New("no text content in model response")
}
