package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tableagent/tableagent/internal/service"
)

func TestTokenStoreMissingFile(t *testing.T) {
	store := service.NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	cred, err := store.Load()
	if err != nil || cred != nil {
		t.Fatalf("Load() = %v, %v; want nil, nil", cred, err)
	}
}

func TestTokenStoreRoundTripOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := service.NewTokenStore(path)
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	if err := store.Save(&service.StoredCredential{AccessToken: "one", Expiry: expiry}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(&service.StoredCredential{AccessToken: "two", RefreshToken: "r", Expiry: expiry}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cred, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.AccessToken != "two" || cred.RefreshToken != "r" || !cred.Expiry.Equal(expiry) {
		t.Errorf("loaded %+v", cred)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credential file mode = %o, want 600", perm)
	}
}

func TestTokenStoreMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":  "token",
		"no tokens": `{"token_type": "Bearer"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token.json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := service.NewTokenStore(path).Load(); !errors.Is(err, service.ErrMalformedCredential) {
				t.Errorf("expected ErrMalformedCredential, got %v", err)
			}
		})
	}
}

func TestTokenStoreUnwritableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "token.json")
	if err := service.NewTokenStore(path).Save(&service.StoredCredential{AccessToken: "x"}); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestStoredCredentialHasScope(t *testing.T) {
	unknown := service.StoredCredential{AccessToken: "x"}
	if !unknown.HasScope(service.SheetsScope) {
		t.Error("credentials without recorded scopes are assumed to carry the requested scope")
	}
	other := service.StoredCredential{AccessToken: "x", Scopes: []string{"openid"}}
	if other.HasScope(service.SheetsScope) {
		t.Error("credential with other scopes must not match")
	}
}
