package session

import (
	"context"
	"errors"
	"fmt"
)

// Kind names one of the persisted credential values.
type Kind string

const (
	// KindAccess is the short-lived bearer credential attached to API calls.
	KindAccess Kind = "access"
	// KindRefresh is the long-lived credential sent only to the refresh endpoint.
	KindRefresh Kind = "refresh"
	// KindRole is the role reported by the backend at login.
	KindRole Kind = "role"
)

// Kinds lists every persisted kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindAccess, KindRefresh, KindRole}
}

// Valid reports whether k is one of the persisted kinds.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh || k == KindRole
}

// ErrUnknownKind is returned for a Kind outside [Kinds].
var ErrUnknownKind = errors.New("unknown credential kind")

// ErrStoreUnavailable wraps backend failures (filesystem, Redis).
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Store is the credential persistence contract.
//
// Get returns "" and a nil error for a kind that is not set. Replace swaps the
// whole document at once: a concurrent Get observes either the old credentials
// or the new ones, never a mix. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, kind Kind) (string, error)
	Set(ctx context.Context, kind Kind, value string) error
	Replace(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

func checkKind(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	return nil
}

// Credentials is the full credential document. The file store persists it as
// JSON and Replace writes it as one unit.
type Credentials struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
	Role    string `json:"role,omitempty"`
}

func (r *Credentials) get(kind Kind) string {
	switch kind {
	case KindAccess:
		return r.Access
	case KindRefresh:
		return r.Refresh
	case KindRole:
		return r.Role
	}
	return ""
}

func (r *Credentials) set(kind Kind, value string) {
	switch kind {
	case KindAccess:
		r.Access = value
	case KindRefresh:
		r.Refresh = value
	case KindRole:
		r.Role = value
	}
}

func (r Credentials) empty() bool {
	return r.Access == "" && r.Refresh == "" && r.Role == ""
}
