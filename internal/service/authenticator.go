package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/sheets/v4"
)

// SheetsScope is the only scope the service ever requests.
const SheetsScope = sheets.SpreadsheetsReadonlyScope

const defaultOAuthTimeout = 30 * time.Second

// Consenter obtains a brand new token by asking the user for consent.
type Consenter interface {
	Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// NewOAuthConfig builds the installed-application client configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{SheetsScope},
		Endpoint:     google.Endpoint,
	}
}

// Authenticator owns the Google credential for the whole process. It serves
// the cached token while it is valid, refreshes it in place when it expires
// and persists every new token to the TokenStore. Concurrent callers share a
// single load/refresh through singleflight.
type Authenticator struct {
	oauth        *oauth2.Config
	store        *TokenStore
	consent      Consenter
	forceConsent bool
	httpClient   *http.Client

	mu    sync.RWMutex
	token *oauth2.Token
	sf    singleflight.Group
}

type AuthOption func(*Authenticator)

// WithConsent attaches an interactive consent flow. Without it the
// Authenticator only reads and refreshes an existing credential.
func WithConsent(c Consenter) AuthOption {
	return func(a *Authenticator) { a.consent = c }
}

// WithForceConsent ignores any stored credential and always asks for consent.
func WithForceConsent() AuthOption {
	return func(a *Authenticator) { a.forceConsent = true }
}

// WithOAuthHTTPClient sets the client used for token refresh and exchange.
func WithOAuthHTTPClient(c *http.Client) AuthOption {
	return func(a *Authenticator) { a.httpClient = c }
}

func NewAuthenticator(cfg *oauth2.Config, store *TokenStore, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		oauth:      cfg,
		store:      store,
		httpClient: &http.Client{Timeout: defaultOAuthTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Token implements oauth2.TokenSource.
func (a *Authenticator) Token() (*oauth2.Token, error) {
	return a.Authenticate(context.Background())
}

// Authenticate returns a valid token. A still-valid cached token is returned
// without touching the file system or the network. Concurrent callers share
// one load/refresh; a caller whose ctx ends stops waiting without cancelling
// the shared work for the others.
func (a *Authenticator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	if tok := a.cached(); tok != nil {
		return tok, nil
	}

	ch := a.sf.DoChan("authenticate", func() (interface{}, error) {
		if tok := a.cached(); tok != nil {
			return tok, nil
		}
		return a.obtain(ctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

func (a *Authenticator) cached() *oauth2.Token {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token.Valid() {
		return a.token
	}
	return nil
}

func (a *Authenticator) obtain(ctx context.Context) (*oauth2.Token, error) {
	var stored *StoredCredential
	if !a.forceConsent {
		var err error
		stored, err = a.store.Load()
		if err != nil {
			if a.consent == nil {
				return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
			}
			log.Warn().Err(err).Str("path", a.store.Path()).Msg("stored credential unusable, requesting consent")
			stored = nil
		}
	}

	if stored != nil && !stored.HasScope(SheetsScope) {
		if a.consent == nil {
			return nil, fmt.Errorf("%w: stored credential lacks scope %s", ErrAuthentication, SheetsScope)
		}
		log.Warn().Strs("scopes", stored.Scopes).Msg("stored credential lacks spreadsheet scope, requesting consent")
		stored = nil
	}

	if stored != nil {
		tok := stored.Token()
		if tok.Valid() {
			a.setToken(tok)
			log.Debug().Str("path", a.store.Path()).Time("expiry", tok.Expiry).Msg("loaded stored credential")
			return tok, nil
		}

		if tok.RefreshToken != "" {
			refreshed, err := a.refresh(ctx, tok)
			if err == nil {
				return a.persist(refreshed)
			}
			if a.consent == nil {
				return nil, fmt.Errorf("%w: refresh token: %w", ErrAuthentication, err)
			}
			log.Warn().Err(err).Msg("token refresh failed, requesting consent")
		}
	}

	if a.consent == nil {
		return nil, ErrNoCredential
	}

	// Consent is interactive and only runs in the single-caller provisioning
	// command, so it follows the caller's ctx.
	tok, err := a.consent.Consent(a.oauthContext(ctx), a.oauth)
	if err != nil {
		return nil, fmt.Errorf("%w: consent flow: %w", ErrAuthentication, err)
	}
	return a.persist(tok)
}

// refresh runs detached from the caller that started it, bounded by
// defaultOAuthTimeout, since other callers may be waiting on the result.
func (a *Authenticator) refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultOAuthTimeout)
	defer cancel()

	start := time.Now()
	refreshed, err := a.oauth.TokenSource(a.oauthContext(ctx), tok).Token()
	if err != nil {
		return nil, err
	}
	log.Info().Dur("duration", time.Since(start)).Time("expiry", refreshed.Expiry).Msg("google credential refreshed")
	return refreshed, nil
}

func (a *Authenticator) persist(tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", ErrAuthentication)
	}
	if err := a.store.Save(credentialFromToken(tok, a.oauth.Scopes)); err != nil {
		return nil, fmt.Errorf("%w: persist credential: %w", ErrAuthentication, err)
	}
	a.setToken(tok)
	return tok, nil
}

func (a *Authenticator) setToken(tok *oauth2.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = tok
}

func (a *Authenticator) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// IsAuthError reports whether err came from the credential layer.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}
