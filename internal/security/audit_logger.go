package security

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// AskEvent describes one /ask request that passed validation.
type AskEvent struct {
	RequestID  string
	Question   string
	SheetID    string
	ToolsCount int
	Model      string
	DurationMs int64
	Success    bool
	Error      string
}

// LogAsk records an /ask event. The question itself is never logged, only its hash.
func (a *AuditLogger) LogAsk(e AskEvent) {
	if !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "ask_audit").
		Str("question_hash", HashString(e.Question)[:16]).
		Str("sheet_id", e.SheetID).
		Int("tools_count", e.ToolsCount).
		Str("model", e.Model).
		Int64("duration_ms", e.DurationMs).
		Bool("success", e.Success)

	if e.RequestID != "" {
		evt = evt.Str("request_id", e.RequestID)
	}
	if e.Error != "" {
		evt = evt.Str("error", e.Error)
	}
	evt.Msg("audit")
}

// HashString returns the hex SHA-256 of s.
func HashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
