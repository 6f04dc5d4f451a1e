package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tableagent/tableagent/internal/config"
	"github.com/tableagent/tableagent/internal/service"
)

const (
	shutdownTimeout     = 10 * time.Second
	startupAuthDeadline = 10 * time.Second
)

type Server struct {
	cfg    *config.Config
	http   *http.Server
	auth   *service.Authenticator
	router http.Handler
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}
	s.router = router

	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.warmCredential(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// warmCredential loads or refreshes the Google credential before the first
// request. Failure is not fatal: info endpoints keep working and spreadsheet
// requests report the authentication error.
func (s *Server) warmCredential(ctx context.Context) {
	if !s.cfg.SheetsConfigured() {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set - spreadsheet endpoints will fail")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, startupAuthDeadline)
	defer cancel()
	if _, err := s.auth.Authenticate(ctx); err != nil {
		log.Warn().Err(err).Str("token_file", s.cfg.TokenFile).Msg("google credential unavailable at startup")
		return
	}
	log.Info().Str("token_file", s.cfg.TokenFile).Msg("google credential ready")
}
