package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
)

// VerifyFailureKind classifies why a credential was not confirmed valid.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureMissing
	VerifyFailureStore
	VerifyFailureTransport
	VerifyFailureRejected
)

// VerifyResult reports whether the stored access credential is valid.
type VerifyResult struct {
	Valid   bool
	Failure VerifyFailureKind
	Err     error
}

// VerifyDeps captures verify flow dependencies.
type VerifyDeps struct {
	HTTP  Doer
	URL   string
	Store session.Store
}

type verifyRequest struct {
	Token string `json:"token"`
}

// RunVerify asks the backend whether the stored access credential is still valid.
// Without a stored credential no request is made. Every failure reads as invalid.
func RunVerify(ctx context.Context, deps VerifyDeps) VerifyResult {
	access, err := deps.Store.Get(ctx, session.KindAccess)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureStore, Err: err}
	}
	if access == "" {
		return VerifyResult{Failure: VerifyFailureMissing}
	}

	err = postJSON(ctx, deps.HTTP, deps.URL, verifyRequest{Token: access}, nil)
	switch {
	case err == nil:
		return VerifyResult{Valid: true}
	case isTransport(err):
		return VerifyResult{Failure: VerifyFailureTransport, Err: err}
	default:
		return VerifyResult{Failure: VerifyFailureRejected, Err: err}
	}
}
