package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// OpenAICompleter talks to any OpenAI-compatible chat-completions endpoint.
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter creates a completer; an empty baseURL means api.openai.com.
// Retries are disabled, each call is exactly one request.
func NewOpenAICompleter(apiKey, baseURL string) *OpenAICompleter {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(baseURL))
	}
	return &OpenAICompleter{client: openai.NewClient(opts...)}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w: no choices", ErrCompletion, ErrEmptyCompletion)
	}

	choice := resp.Choices[0]
	log.Debug().
		Str("model", resp.Model).
		Str("finish_reason", choice.FinishReason).
		Int64("prompt_tokens", resp.Usage.PromptTokens).
		Int64("completion_tokens", resp.Usage.CompletionTokens).
		Msg("chat completion")

	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%w: %w", ErrCompletion, ErrEmptyCompletion)
	}
	return choice.Message.Content, nil
}
