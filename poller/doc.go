// Package poller runs a callback on a fixed interval until released.
//
// A [Poller] has at most one loop. Start while active is a no-op; Stop is
// idempotent and returns only after the loop has exited, so no callback runs after
// Stop returns. [Scope] and [Run] tie a poller to a caller scope so it is released
// on every exit path.
package poller
