package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/tableagent/tableagent/internal/agent"
	"github.com/tableagent/tableagent/internal/handler"
	"github.com/tableagent/tableagent/internal/middleware"
	"github.com/tableagent/tableagent/internal/security"
	"github.com/tableagent/tableagent/internal/service"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Services ───────────────────────────────────────────────────────────────
	// One Authenticator per process; every request shares its cached credential.
	s.auth = service.NewAuthenticator(
		service.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI),
		service.NewTokenStore(cfg.TokenFile),
	)

	sheetsSvc, err := service.NewSheetsService(ctx, s.auth, service.SheetsConfig{
		DefaultRange:     cfg.SheetRange,
		Timeout:          cfg.UpstreamTimeout,
		FailOnFetchError: cfg.FailOnFetchError,
	})
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	// ─── AI Agent ────────────────────────────────────────────────────────────────
	completer, err := agent.NewCompleter(cfg)
	if err != nil {
		return nil, err
	}
	engine := agent.NewAnswerEngine(completer, cfg.Model, cfg.CompletionTimeout)

	// ─── Security ───────────────────────────────────────────────────────────────
	validator := security.NewQuestionValidator(cfg.MaxQuestionLength, cfg.EnableQuestionScreening)
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	log.Info().
		Str("completion_provider", cfg.CompletionProvider).
		Str("model", cfg.Model.Name).
		Bool("completion_configured", cfg.CompletionConfigured()).
		Bool("sheets_configured", cfg.SheetsConfigured()).
		Bool("default_sheet", cfg.SampleSpreadsheetID != "").
		Bool("fail_on_fetch_error", cfg.FailOnFetchError).
		Bool("question_screening", cfg.EnableQuestionScreening).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")

	if !cfg.CompletionConfigured() {
		log.Warn().Str("provider", cfg.CompletionProvider).Msg("completion API key not set - /ask will fail")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	infoH := handler.NewInfoHandler(cfg)
	toolsH := handler.NewToolsHandler(sheetsSvc)
	askH := handler.NewAskHandler(sheetsSvc, engine, validator, auditLogger, cfg.SampleSpreadsheetID)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	r.Get("/", infoH.Root)
	r.Get("/health", infoH.Health)
	r.Get("/config", infoH.Config)
	r.Get("/tools/{sheetId}", toolsH.ListTools)
	r.Post("/ask", askH.Ask)

	return r, nil
}
