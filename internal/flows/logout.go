package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// ClearTimeout bounds the store wipe that follows a failed login or refresh.
const ClearTimeout = 5 * time.Second

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store session.Store
}

// RunLogout removes every persisted credential. It is idempotent.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	return deps.Store.Clear(ctx)
}

// clearDetached wipes the store after a failed flow. The flow's ctx may already
// be past its deadline, so the wipe runs on a detached ctx with its own bound.
func clearDetached(ctx context.Context, store session.Store) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ClearTimeout)
	defer cancel()
	return store.Clear(ctx)
}
