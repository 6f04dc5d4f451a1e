package agent_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tableagent/tableagent/internal/agent"
	"github.com/tableagent/tableagent/internal/config"
	"github.com/tableagent/tableagent/internal/models"
)

type recordingCompleter struct {
	calls  int
	last   agent.CompletionRequest
	answer string
	err    error
}

func (c *recordingCompleter) Complete(ctx context.Context, req agent.CompletionRequest) (string, error) {
	c.calls++
	c.last = req
	return c.answer, c.err
}

func strPtr(s string) *string { return &s }

var sampleTools = []models.ToolRecord{
	{RowNumber: 3, Name: "A", URL: "u1"},
	{RowNumber: 7, Name: "B", URL: "u2", Description: strPtr("d")},
}

func TestFormatContext(t *testing.T) {
	got := agent.FormatContext(sampleTools)
	want := "1. A\n" +
		"   URL: u1\n" +
		"\n" +
		"2. B\n" +
		"   URL: u2\n" +
		"   Description: d\n" +
		"\n"
	if got != want {
		t.Errorf("FormatContext() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatContextNumbersByPosition(t *testing.T) {
	got := agent.FormatContext(sampleTools)
	if strings.Contains(got, "3.") || strings.Contains(got, "7.") {
		t.Errorf("numbering must follow input position, not row number:\n%s", got)
	}
	blocks := strings.Split(strings.TrimSpace(got), "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if strings.Contains(blocks[0], "Description") {
		t.Error("block 1 should omit the description line")
	}
	if !strings.Contains(blocks[1], "Description: d") {
		t.Error("block 2 should include the description line")
	}
}

func TestFormatContextSkipsEmptyDescription(t *testing.T) {
	got := agent.FormatContext([]models.ToolRecord{{Name: "A", URL: "u1", Description: strPtr("")}})
	if strings.Contains(got, "Description") {
		t.Errorf("empty description should not be rendered:\n%s", got)
	}
}

func TestFormatContextEmpty(t *testing.T) {
	if got := agent.FormatContext(nil); got != "" {
		t.Errorf("FormatContext(nil) = %q, want empty", got)
	}
}

func TestBuildUserPromptEndsWithQuestion(t *testing.T) {
	prompt := agent.BuildUserPrompt("Where do I file bugs?", sampleTools)
	if !strings.HasPrefix(prompt, "Available tools:\n1. A") {
		t.Errorf("prompt should start with the catalog, got %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Where do I file bugs?") {
		t.Errorf("prompt should end with the literal question, got %q", prompt)
	}
}

func TestAnswerQuestion(t *testing.T) {
	completer := &recordingCompleter{answer: "Use B: u2"}
	model := config.ModelConfig{Name: "glm-4.5-flash", SystemPrompt: "be helpful", MaxTokens: 321, Temperature: 0.4}
	engine := agent.NewAnswerEngine(completer, model, time.Second)

	answer, err := engine.AnswerQuestion(context.Background(), "Which tool has a description?", sampleTools)
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if answer != "Use B: u2" {
		t.Errorf("answer = %q", answer)
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
	req := completer.last
	if req.Model != "glm-4.5-flash" || req.SystemPrompt != "be helpful" || req.MaxTokens != 321 || req.Temperature != 0.4 {
		t.Errorf("request parameters not taken from config: %+v", req)
	}
	if !strings.Contains(req.UserPrompt, agent.FormatContext(sampleTools)) {
		t.Error("user prompt should contain the rendered context")
	}
	if engine.Model() != "glm-4.5-flash" {
		t.Errorf("Model() = %q", engine.Model())
	}
}

func TestAnswerQuestionPropagatesError(t *testing.T) {
	upstream := errors.New("invalid api key")
	completer := &recordingCompleter{err: upstream}
	engine := agent.NewAnswerEngine(completer, config.ModelConfig{Name: "m"}, time.Second)

	_, err := engine.AnswerQuestion(context.Background(), "q", sampleTools)
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error to propagate, got %v", err)
	}
}

type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, req agent.CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAnswerQuestionTimeout(t *testing.T) {
	engine := agent.NewAnswerEngine(blockingCompleter{}, config.ModelConfig{Name: "m"}, 50*time.Millisecond)

	start := time.Now()
	_, err := engine.AnswerQuestion(context.Background(), "q", sampleTools)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if !errors.Is(err, agent.ErrCompletion) {
		t.Errorf("expected ErrCompletion, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("completion took %v, the timeout was not applied", elapsed)
	}
}

func TestNewCompleter(t *testing.T) {
	cfg := &config.Config{CompletionProvider: config.ProviderOpenAI}
	if c, err := agent.NewCompleter(cfg); err != nil {
		t.Fatalf("openai: %v", err)
	} else if _, ok := c.(*agent.OpenAICompleter); !ok {
		t.Errorf("openai provider returned %T", c)
	}

	cfg.CompletionProvider = config.ProviderAnthropic
	if c, err := agent.NewCompleter(cfg); err != nil {
		t.Fatalf("anthropic: %v", err)
	} else if _, ok := c.(*agent.AnthropicCompleter); !ok {
		t.Errorf("anthropic provider returned %T", c)
	}

	cfg.CompletionProvider = "nope"
	if _, err := agent.NewCompleter(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
