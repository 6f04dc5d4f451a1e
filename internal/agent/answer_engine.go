package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tableagent/tableagent/internal/config"
	"github.com/tableagent/tableagent/internal/models"
)

// AnswerEngine answers questions about a tool catalog with one completion call.
// It keeps no state between calls.
type AnswerEngine struct {
	completer Completer
	model     config.ModelConfig
	timeout   time.Duration
}

func NewAnswerEngine(completer Completer, model config.ModelConfig, timeout time.Duration) *AnswerEngine {
	return &AnswerEngine{
		completer: completer,
		model:     model,
		timeout:   timeout,
	}
}

// Model returns the configured model name.
func (e *AnswerEngine) Model() string {
	return e.model.Name
}

// AnswerQuestion renders tools into the prompt, calls the completion API once
// and returns the first choice's text.
func (e *AnswerEngine) AnswerQuestion(ctx context.Context, question string, tools []models.ToolRecord) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := e.completer.Complete(ctx, CompletionRequest{
		Model:        e.model.Name,
		SystemPrompt: e.model.SystemPrompt,
		UserPrompt:   BuildUserPrompt(question, tools),
		MaxTokens:    e.model.MaxTokens,
		Temperature:  e.model.Temperature,
	})
	if err != nil {
		if !errors.Is(err, ErrCompletion) {
			err = fmt.Errorf("%w: %w", ErrCompletion, err)
		}
		return "", fmt.Errorf("answer question: %w", err)
	}

	log.Debug().
		Str("model", e.model.Name).
		Int("tools", len(tools)).
		Dur("duration", time.Since(start)).
		Msg("question answered")
	return answer, nil
}

// BuildUserPrompt places the rendered catalog before the literal question.
func BuildUserPrompt(question string, tools []models.ToolRecord) string {
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	sb.WriteString(FormatContext(tools))
	sb.WriteString("User question: ")
	sb.WriteString(question)
	return sb.String()
}

// FormatContext renders one numbered block per tool, in input order. The
// number is the position in tools, not the spreadsheet row.
func FormatContext(tools []models.ToolRecord) string {
	var sb strings.Builder
	for i, tool := range tools {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, tool.Name)
		fmt.Fprintf(&sb, "   URL: %s\n", tool.URL)
		if tool.HasDescription() {
			fmt.Fprintf(&sb, "   Description: %s\n", *tool.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
