package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// StoredCredential is the on-disk shape of the OAuth token set.
type StoredCredential struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Token converts the stored credential into an oauth2 token.
func (c *StoredCredential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// HasScope reports whether scope was granted. Credentials that do not record
// their scopes are assumed to carry the requested ones.
func (c *StoredCredential) HasScope(scope string) bool {
	return len(c.Scopes) == 0 || slices.Contains(c.Scopes, scope)
}

// credentialFromToken records tok with the scopes the server reported, or the
// requested scopes when the token response did not list any.
func credentialFromToken(tok *oauth2.Token, requested []string) *StoredCredential {
	scopes := requested
	if granted, ok := tok.Extra("scope").(string); ok && strings.TrimSpace(granted) != "" {
		scopes = strings.Fields(granted)
	}
	return &StoredCredential{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
	}
}

// TokenStore persists a single credential as a JSON file.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the credential file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load returns (nil, nil) when the file does not exist.
func (s *TokenStore) Load() (*StoredCredential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var cred StoredCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCredential, s.path, err)
	}
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %s: neither access_token nor refresh_token present", ErrMalformedCredential, s.path)
	}
	return &cred, nil
}

// Save overwrites the credential file. The write goes through a temp file in
// the same directory so a crash never leaves a truncated credential behind.
func (s *TokenStore) Save(cred *StoredCredential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("create temp credential file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
