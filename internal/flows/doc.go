// Package flows contains the backend calls behind every Client operation.
//
// Each flow function (RunLogin, RunVerify, RunRefresh, RunLogout) accepts a typed
// dependency struct and returns a classified result. The root package maps the
// failure kinds onto its sentinel errors, metrics, and session events.
//
// # Architecture boundaries
//
// Flow functions talk to the authentication backend through an injected [Doer]
// and to the credential store through [session.Store]. Timeouts and caller
// coalescing are applied by the Client before a flow runs.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Decide how failures are reported to users.
package flows
