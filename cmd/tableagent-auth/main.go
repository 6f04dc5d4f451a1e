// Command tableagent-auth runs the Google OAuth consent flow once and stores
// the resulting credential where the tableagent server reads it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skratchdot/open-golang/open"

	"github.com/tableagent/tableagent/internal/config"
	"github.com/tableagent/tableagent/internal/service"
)

func main() {
	noBrowser := flag.Bool("no-browser", false, "print the consent URL instead of opening a browser")
	force := flag.Bool("force", false, "ignore any stored credential and run consent again")
	timeout := flag.Duration("timeout", 5*time.Minute, "how long to wait for the consent callback")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if !cfg.SheetsConfigured() || cfg.GoogleClientSecret == "" {
		log.Fatal().Msg("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	opener := service.BrowserOpener(open.Run)
	if *noBrowser {
		opener = nil
	}

	opts := []service.AuthOption{
		service.WithConsent(service.NewConsentFlow(cfg.GoogleRedirectURI, opener, os.Stdout)),
	}
	if *force {
		opts = append(opts, service.WithForceConsent())
	}

	store := service.NewTokenStore(cfg.TokenFile)
	auth := service.NewAuthenticator(
		service.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI),
		store,
		opts...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	tok, err := auth.Authenticate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("authentication failed")
	}

	fmt.Printf("Credential stored in %s (expires %s, refresh token: %t)\n",
		store.Path(), tok.Expiry.Format(time.RFC3339), tok.RefreshToken != "")
}
