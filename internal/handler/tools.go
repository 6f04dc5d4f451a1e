package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tableagent/tableagent/internal/middleware"
	"github.com/tableagent/tableagent/internal/models"
	"github.com/tableagent/tableagent/internal/service"
)

// ToolSource loads the tool catalog of a spreadsheet. *service.SheetsService implements it.
type ToolSource interface {
	GetToolsData(ctx context.Context, spreadsheetID string) ([]models.ToolRecord, error)
}

// ToolsHandler handles GET /tools/{sheetId}
type ToolsHandler struct {
	tools ToolSource
}

func NewToolsHandler(tools ToolSource) *ToolsHandler {
	return &ToolsHandler{tools: tools}
}

func (h *ToolsHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	sheetID := strings.TrimSpace(chi.URLParam(r, "sheetId"))
	if sheetID == "" {
		models.WriteError(w, http.StatusBadRequest, "sheet id is required")
		return
	}

	tools, err := h.tools.GetToolsData(r.Context(), sheetID)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("sheet_id", sheetID).
			Msg("list tools failed")
		writeToolSourceError(w, err)
		return
	}
	if tools == nil {
		tools = []models.ToolRecord{}
	}

	models.WriteJSON(w, http.StatusOK, models.ToolsResponse{
		Tools:   tools,
		Count:   len(tools),
		SheetID: sheetID,
	})
}

// writeToolSourceError maps a ToolSource failure to a 500. Authentication
// failures carry a reason so clients can tell re-provisioning is needed.
func writeToolSourceError(w http.ResponseWriter, err error) {
	reason := ""
	if service.IsAuthError(err) {
		reason = models.ReasonAuthenticationRequired
	}
	models.WriteErrorReason(w, http.StatusInternalServerError, err.Error(), reason)
}
