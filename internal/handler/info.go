package handler

import (
	"net/http"

	"github.com/tableagent/tableagent/internal/config"
	"github.com/tableagent/tableagent/internal/models"
)

const version = "1.0.0"

// InfoHandler serves the endpoints that only read configuration. They never
// call an upstream, so they work with every secret missing.
type InfoHandler struct {
	cfg *config.Config
}

func NewInfoHandler(cfg *config.Config) *InfoHandler {
	return &InfoHandler{cfg: cfg}
}

// Root handles GET /
func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, models.RootResponse{
		Message: "TableAgent API is running",
		Version: version,
		Model:   h.cfg.Model.Name,
	})
}

// Health handles GET /health. It reports configuration, not upstream reachability.
func (h *InfoHandler) Health(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, models.HealthResponse{
		Status:        "healthy",
		Model:         h.cfg.Model.Name,
		APIConfigured: h.cfg.CompletionConfigured(),
	})
}

// Config handles GET /config. Secrets are reported only as booleans.
func (h *InfoHandler) Config(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, models.ConfigResponse{
		Model: models.ModelInfo{
			Name:            h.cfg.Model.Name,
			MaxTokens:       h.cfg.Model.MaxTokens,
			Temperature:     h.cfg.Model.Temperature,
			ThinkingEnabled: false,
		},
		API: models.APIInfo{
			BaseURL:    h.cfg.CompletionBaseURL(),
			Configured: h.cfg.CompletionConfigured(),
		},
		GoogleSheets: models.GoogleSheetsInfo{
			Configured: h.cfg.SheetsConfigured(),
		},
	})
}
