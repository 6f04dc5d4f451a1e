package service_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tableagent/tableagent/internal/service"
)

// callbackOpener plays the browser: it follows the consent URL's redirect_uri
// back to the local listener with the given query.
func callbackOpener(t *testing.T, query func(state string) url.Values) service.BrowserOpener {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		redirect := u.Query().Get("redirect_uri")
		state := u.Query().Get("state")
		go func() {
			resp, err := http.Get(redirect + "?" + query(state).Encode())
			if err != nil {
				t.Errorf("callback request: %v", err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
		return nil
	}
}

func TestConsentFlowExchangesCode(t *testing.T) {
	var gotCode, gotRedirect string
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotCode = r.PostForm.Get("code")
		gotRedirect = r.PostForm.Get("redirect_uri")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "granted", "refresh_token": "refresh", "token_type": "Bearer", "expires_in": 3600}`)
	}))
	defer tokenSrv.Close()

	var printed strings.Builder
	flow := service.NewConsentFlow("", callbackOpener(t, func(state string) url.Values {
		return url.Values{"code": {"auth-code"}, "state": {state}}
	}), &printed)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tok, err := flow.Consent(ctx, oauthConfig(tokenSrv.URL))
	if err != nil {
		t.Fatalf("Consent: %v", err)
	}
	if tok.AccessToken != "granted" || tok.RefreshToken != "refresh" {
		t.Errorf("token = %+v", tok)
	}
	if gotCode != "auth-code" {
		t.Errorf("exchanged code = %q, want auth-code", gotCode)
	}
	// The redirect must name the address the listener is bound to.
	if !strings.HasPrefix(gotRedirect, "http://127.0.0.1:") {
		t.Errorf("redirect_uri = %q, want a 127.0.0.1 loopback address", gotRedirect)
	}
	out := printed.String()
	if !strings.Contains(out, "access_type=offline") || !strings.Contains(out, "spreadsheets.readonly") {
		t.Errorf("consent URL missing offline access or scope: %s", out)
	}
}

func TestConsentFlowStateMismatch(t *testing.T) {
	flow := service.NewConsentFlow("", callbackOpener(t, func(string) url.Values {
		return url.Values{"code": {"auth-code"}, "state": {"forged"}}
	}), io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := flow.Consent(ctx, oauthConfig("http://127.0.0.1:1/token")); err == nil || !strings.Contains(err.Error(), "state") {
		t.Fatalf("expected state mismatch error, got %v", err)
	}
}

func TestConsentFlowDenied(t *testing.T) {
	flow := service.NewConsentFlow("", callbackOpener(t, func(state string) url.Values {
		return url.Values{"error": {"access_denied"}, "state": {state}}
	}), io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := flow.Consent(ctx, oauthConfig("http://127.0.0.1:1/token")); err == nil || !strings.Contains(err.Error(), "access_denied") {
		t.Fatalf("expected access_denied error, got %v", err)
	}
}

func TestConsentFlowCanceled(t *testing.T) {
	flow := service.NewConsentFlow("", nil, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := flow.Consent(ctx, oauthConfig("http://127.0.0.1:1/token")); err == nil {
		t.Fatal("expected error when nobody completes the flow")
	}
}
