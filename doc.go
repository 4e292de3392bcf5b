// Package goSession is the session and authorization core of the ride-coordination
// client: it logs users in against the authentication backend, keeps the
// credential pair in an injectable store, verifies and refreshes it, and derives
// the user's role for navigation gating.
//
// [Client] methods are safe to call from multiple goroutines after construction
// through [Builder.Build]. Refresh is single-flight: any number of concurrent
// callers share one network call and its outcome.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Client], [Builder], [Config], and
// value types (LoginResult, MetricsSnapshot, SessionEvent). Backend calls live in
// internal/flows and event delivery in internal/events; neither is exported.
// The request gateway (middleware), navigation guard (route), and poller are
// separate packages that consume a Client.
//
// # What this package must NOT do
//
//   - Verify credential signatures. Decoded claims are display and gating hints only;
//     the backend remains the authority.
//   - Expose the store's encoding or the HTTP wire format in its public API.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
