package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tableagent/tableagent/internal/middleware"
	"github.com/tableagent/tableagent/internal/models"
	"github.com/tableagent/tableagent/internal/security"
	"github.com/tableagent/tableagent/internal/service"
)

const maxAskBodyBytes = 64 << 10

// QuestionAnswerer produces an answer grounded in a tool catalog. *agent.AnswerEngine implements it.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question string, tools []models.ToolRecord) (string, error)
	Model() string
}

// AskHandler handles POST /ask
type AskHandler struct {
	tools          ToolSource
	answerer       QuestionAnswerer
	validator      *security.QuestionValidator
	audit          *security.AuditLogger
	defaultSheetID string
}

func NewAskHandler(
	tools ToolSource,
	answerer QuestionAnswerer,
	validator *security.QuestionValidator,
	audit *security.AuditLogger,
	defaultSheetID string,
) *AskHandler {
	return &AskHandler{
		tools:          tools,
		answerer:       answerer,
		validator:      validator,
		audit:          audit,
		defaultSheetID: defaultSheetID,
	}
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes)).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if v := h.validator.Validate(req.Question); !v.Valid {
		models.WriteError(w, http.StatusBadRequest, v.Message)
		return
	}

	ctx := r.Context()
	start := time.Now()
	event := security.AskEvent{
		RequestID: middleware.GetRequestID(ctx),
		Question:  req.Question,
		Model:     h.answerer.Model(),
	}
	fail := func(status int, err error, reason string) {
		event.DurationMs = time.Since(start).Milliseconds()
		event.Error = err.Error()
		h.audit.LogAsk(event)
		models.WriteErrorReason(w, status, err.Error(), reason)
	}

	sheetID := req.ResolveSheetID(h.defaultSheetID)
	if sheetID == "" {
		fail(http.StatusBadRequest, errNoSheetID, "")
		return
	}
	event.SheetID = sheetID

	tools, err := h.tools.GetToolsData(ctx, sheetID)
	if err != nil {
		log.Error().Err(err).Str("request_id", event.RequestID).Str("sheet_id", sheetID).Msg("load tools failed")
		reason := ""
		if service.IsAuthError(err) {
			reason = models.ReasonAuthenticationRequired
		}
		fail(http.StatusInternalServerError, err, reason)
		return
	}
	event.ToolsCount = len(tools)
	if len(tools) == 0 {
		fail(http.StatusNotFound, errNoTools, "")
		return
	}

	answer, err := h.answerer.AnswerQuestion(ctx, req.Question, tools)
	if err != nil {
		log.Error().Err(err).Str("request_id", event.RequestID).Str("sheet_id", sheetID).Msg("answer question failed")
		fail(http.StatusInternalServerError, err, "")
		return
	}

	event.DurationMs = time.Since(start).Milliseconds()
	event.Success = true
	h.audit.LogAsk(event)

	models.WriteJSON(w, http.StatusOK, models.AnswerResponse{
		Question:   req.Question,
		Answer:     answer,
		ToolsCount: len(tools),
		SheetID:    sheetID,
		Model:      h.answerer.Model(),
	})
}
