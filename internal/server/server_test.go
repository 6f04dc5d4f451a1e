package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/tableagent/tableagent/internal/config"
	"github.com/tableagent/tableagent/internal/models"
	"github.com/tableagent/tableagent/internal/server"
)

// newTestServer wires the real stack with no stored Google credential, so no
// request ever leaves the process.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Host:                    "127.0.0.1",
		Port:                    0,
		CORSOrigins:             []string{"http://localhost:3000"},
		GoogleClientID:          "client-id",
		GoogleClientSecret:      "client-secret",
		GoogleRedirectURI:       "http://localhost:8080/",
		TokenFile:               filepath.Join(t.TempDir(), "token.json"),
		SheetRange:              config.DefaultSheetRange,
		UpstreamTimeout:         time.Second,
		CompletionProvider:      config.ProviderOpenAI,
		CompletionTimeout:       time.Second,
		MaxQuestionLength:       config.DefaultMaxQuestionLength,
		EnableQuestionScreening: true,
		Model: config.ModelConfig{
			Name:         config.DefaultModelName,
			SystemPrompt: config.DefaultSystemPrompt,
			MaxTokens:    config.DefaultMaxTokens,
			Temperature:  config.DefaultTemperature,
		},
	}
	srv, err := server.New(cfg)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return srv.Handler()
}

func do(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestInfoRoutes(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/", "/health", "/config"} {
		rr := do(h, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("GET %s: missing X-Request-ID", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("GET %s: security headers missing", path)
		}
	}
}

func TestToolsWithoutCredentialReportsAuthError(t *testing.T) {
	h := newTestServer(t)

	rr := do(h, http.MethodGet, "/tools/sheet-1", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rr.Code, rr.Body.String())
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reason != models.ReasonAuthenticationRequired {
		t.Errorf("reason = %q, want %q", body.Reason, models.ReasonAuthenticationRequired)
	}
}

func TestAskValidationRoutes(t *testing.T) {
	h := newTestServer(t)

	if rr := do(h, http.MethodPost, "/ask", []byte(`{"question": ""}`)); rr.Code != http.StatusBadRequest {
		t.Errorf("empty question: expected 400, got %d", rr.Code)
	}
	// No sheet_id in the request and no default configured.
	if rr := do(h, http.MethodPost, "/ask", []byte(`{"question": "Which tool tracks issues?"}`)); rr.Code != http.StatusBadRequest {
		t.Errorf("missing sheet id: expected 400, got %d", rr.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h := newTestServer(t)

	if rr := do(h, http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if rr := do(h, http.MethodGet, "/ask", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("allowed origin not echoed")
	}
}
