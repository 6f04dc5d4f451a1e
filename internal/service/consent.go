package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// BrowserOpener opens a URL for the user, typically in the default browser.
type BrowserOpener func(url string) error

// ConsentFlow runs the installed-application OAuth flow: a temporary loopback
// listener receives the authorization redirect and the code is exchanged for
// a token. It is meant for the one-time provisioning command, never for the
// request-serving process.
type ConsentFlow struct {
	listenAddr   string
	callbackPath string
	open         BrowserOpener
	out          io.Writer
}

// NewConsentFlow listens on the loopback port named by redirectURI when it has
// one, otherwise on an ephemeral port.
func NewConsentFlow(redirectURI string, open BrowserOpener, out io.Writer) *ConsentFlow {
	f := &ConsentFlow{
		listenAddr:   "127.0.0.1:0",
		callbackPath: "/",
		open:         open,
		out:          out,
	}
	if u, err := url.Parse(redirectURI); err == nil && isLoopback(u.Hostname()) {
		if port := u.Port(); port != "" {
			f.listenAddr = net.JoinHostPort("127.0.0.1", port)
		}
		if u.Path != "" {
			f.callbackPath = u.Path
		}
	}
	return f
}

type callbackResult struct {
	code string
	err  error
}

// Consent implements Consenter.
func (f *ConsentFlow) Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	local := *cfg
	local.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", port, f.callbackPath)

	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           f.callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("oauth callback server stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := local.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if f.out != nil {
		fmt.Fprintf(f.out, "Open the following URL to grant read-only access to Google Sheets:\n\n%s\n\n", authURL)
	}
	if f.open != nil {
		if err := f.open(authURL); err != nil {
			log.Warn().Err(err).Msg("could not open browser, open the URL manually")
		}
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for oauth callback: %w", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := local.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func (f *ConsentFlow) callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != f.callbackPath {
			http.NotFound(w, r)
			return
		}
		code, err := parseCallback(r.URL.Query(), state)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Authorization failed: %v\n", err)
		} else {
			fmt.Fprintln(w, "Authorization complete. You may close this window.")
		}
		select {
		case results <- callbackResult{code: code, err: err}:
		default:
		}
	})
}

// parseCallback extracts the authorization code from the redirect query.
func parseCallback(query url.Values, wantState string) (string, error) {
	if oauthErr := strings.TrimSpace(query.Get("error")); oauthErr != "" {
		if desc := strings.TrimSpace(query.Get("error_description")); desc != "" {
			return "", fmt.Errorf("oauth error: %s: %s", oauthErr, desc)
		}
		return "", fmt.Errorf("oauth error: %s", oauthErr)
	}
	if got := strings.TrimSpace(query.Get("state")); got != wantState {
		return "", errors.New("state mismatch in oauth callback")
	}
	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		return "", errors.New("missing code in oauth callback")
	}
	return code, nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
