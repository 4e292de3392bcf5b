package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/jwt"
)

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects the
	// username and password. The backend's message follows the colon.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshFailed is returned by Refresh for every failure. The store has been
	// cleared by the time the caller sees it.
	ErrRefreshFailed = errors.New("refresh failed")
	// ErrNoRefreshCredential is wrapped inside ErrRefreshFailed when there was
	// nothing to refresh with.
	ErrNoRefreshCredential = errors.New("no refresh credential")
	// ErrBackendUnavailable wraps transport failures talking to the authentication backend.
	ErrBackendUnavailable = errors.New("authentication backend unavailable")
	// ErrNotAuthenticated is returned by Claims when no access credential is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrClientNotReady is returned when a method is called on a nil Client.
	ErrClientNotReady = errors.New("client not ready")
	// ErrMalformedCredential is returned when a stored credential cannot be decoded.
	ErrMalformedCredential = jwt.ErrMalformedCredential
)
