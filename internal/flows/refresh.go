package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureStore
	RefreshFailureTransport
	RefreshFailureRejected
	RefreshFailureDecode
	RefreshFailurePersist
)

// RefreshResult carries either the new access credential or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Access  string
	Rotated bool
	Role    string
	// ClearErr is set when the store could not be wiped after a failure.
	ClearErr error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	HTTP  Doer
	URL   string
	Store session.Store
	// RoleClaim returns the role carried by an access credential, or "".
	RoleClaim func(access string) string
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RunRefresh exchanges the stored refresh credential for a new access credential.
// On any failure the store is cleared: a session whose refresh failed is over.
// The new credentials are written with one Replace, so readers never pair the
// new access credential with a stale refresh credential.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	res := runRefresh(ctx, deps)
	if res.Failure != RefreshFailureNone {
		res.ClearErr = clearDetached(ctx, deps.Store)
	}
	return res
}

func runRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	refresh, err := deps.Store.Get(ctx, session.KindRefresh)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if refresh == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	var out refreshResponse
	err = postJSON(ctx, deps.HTTP, deps.URL, refreshRequest{Refresh: refresh}, &out)
	switch {
	case err == nil:
	case isTransport(err):
		return RefreshResult{Failure: RefreshFailureTransport, Err: err}
	case isDecode(err):
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	default:
		return RefreshResult{Failure: RefreshFailureRejected, Err: err}
	}
	if out.Access == "" {
		return RefreshResult{
			Failure: RefreshFailureDecode,
			Err:     &DecodeError{Err: errors.New("response missing access credential")},
		}
	}

	next := session.Credentials{Access: out.Access, Refresh: refresh}
	rotated := out.Refresh != "" && out.Refresh != refresh
	if rotated {
		next.Refresh = out.Refresh
	}

	var role string
	if deps.RoleClaim != nil {
		role = deps.RoleClaim(out.Access)
	}
	next.Role = role
	if role == "" {
		cached, err := deps.Store.Get(ctx, session.KindRole)
		if err != nil {
			return RefreshResult{Failure: RefreshFailureStore, Err: err}
		}
		next.Role = cached
	}

	if err := deps.Store.Replace(ctx, next); err != nil {
		return RefreshResult{Failure: RefreshFailurePersist, Err: err}
	}

	return RefreshResult{
		Failure: RefreshFailureNone,
		Access:  out.Access,
		Rotated: rotated,
		Role:    role,
	}
}
