package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/session"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureTransport
	LoginFailureRejected
	LoginFailureDecode
	LoginFailurePersist
)

// LoginResult carries either the persisted credentials or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Access  string
	Refresh string
	Role    string
	// ClearErr is set when the store could not be wiped after a persist failure.
	ClearErr error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	HTTP  Doer
	URL   string
	Store session.Store
	// RoleClaim returns the role carried by an access credential, or "".
	RoleClaim func(access string) string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Role    string `json:"role"`
}

// RunLogin exchanges username and password for a credential pair and persists it.
// A previous session is replaced only once the backend has accepted the login.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginResult {
	var out loginResponse
	err := postJSON(ctx, deps.HTTP, deps.URL, loginRequest{Username: username, Password: password}, &out)
	switch {
	case err == nil:
	case isTransport(err):
		return LoginResult{Failure: LoginFailureTransport, Err: err}
	case isDecode(err):
		return LoginResult{Failure: LoginFailureDecode, Err: err}
	default:
		return LoginResult{Failure: LoginFailureRejected, Err: err}
	}

	if out.Access == "" || out.Refresh == "" {
		return LoginResult{
			Failure: LoginFailureDecode,
			Err:     &DecodeError{Err: errors.New("response missing credentials")},
		}
	}

	role := out.Role
	if role == "" && deps.RoleClaim != nil {
		role = deps.RoleClaim(out.Access)
	}

	creds := session.Credentials{Access: out.Access, Refresh: out.Refresh, Role: role}
	if err := deps.Store.Replace(ctx, creds); err != nil {
		return LoginResult{
			Failure:  LoginFailurePersist,
			Err:      err,
			ClearErr: clearDetached(ctx, deps.Store),
		}
	}

	return LoginResult{
		Failure: LoginFailureNone,
		Access:  out.Access,
		Refresh: out.Refresh,
		Role:    role,
	}
}
