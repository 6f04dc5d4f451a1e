package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication covers every failure to obtain a usable Google credential.
	ErrAuthentication = errors.New("google sheets authentication failed")

	// ErrNoCredential means no stored credential exists and no consent flow is attached.
	ErrNoCredential = fmt.Errorf("%w: no stored credential, run tableagent-auth to provision one", ErrAuthentication)

	// ErrMalformedCredential means the credential file exists but cannot be used.
	ErrMalformedCredential = errors.New("malformed credential file")

	// ErrUpstreamFetch wraps failures of the spreadsheet values call.
	ErrUpstreamFetch = errors.New("spreadsheet fetch failed")

	// ErrToolNotFound is returned by FindToolByName when nothing matches.
	ErrToolNotFound = errors.New("tool not found")
)
