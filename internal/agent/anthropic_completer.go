package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// AnthropicCompleter wraps the Anthropic Messages API or a compatible provider (e.g. Z.ai).
type AnthropicCompleter struct {
	client *anthropic.Client
}

// NewAnthropicCompleter creates a completer; an empty baseURL means the Anthropic API.
func NewAnthropicCompleter(apiKey, baseURL string) *AnthropicCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicCompleter{client: anthropic.NewClient(opts...)}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(req.Model)),
		MaxTokens:   anthropic.F(int64(req.MaxTokens)),
		Temperature: anthropic.F(req.Temperature),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		}),
	}
	if req.SystemPrompt != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.SystemPrompt),
		})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}

	log.Debug().
		Str("model", string(resp.Model)).
		Str("stop_reason", string(resp.StopReason)).
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Msg("anthropic completion")

	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: %w", ErrCompletion, ErrEmptyCompletion)
	}
	return text.String(), nil
}
