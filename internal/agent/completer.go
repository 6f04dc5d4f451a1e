package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tableagent/tableagent/internal/config"
)

var (
	// ErrCompletion wraps every failure of the completion API.
	ErrCompletion = errors.New("completion request failed")

	// ErrEmptyCompletion means the API answered without any text.
	ErrEmptyCompletion = errors.New("completion returned no text")
)

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Completer sends one completion request and returns the generated text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewCompleter returns the completer for the configured provider.
func NewCompleter(cfg *config.Config) (Completer, error) {
	switch cfg.CompletionProvider {
	case config.ProviderOpenAI, "":
		return NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case config.ProviderAnthropic:
		return NewAnthropicCompleter(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}
