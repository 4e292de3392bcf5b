// Package middleware is the request gateway: an [http.RoundTripper] that attaches
// the session's access credential to outbound API calls and recovers from
// authentication failures.
//
// # Gateway
//
//   - [Transport] adds "Authorization: Bearer <access>" and an X-Request-Id.
//   - On a 401 it retries once: with the stored credential when a concurrent
//     refresh already replaced the one sent, otherwise after a coalesced
//     [Session.Refresh]. A failed refresh logs the session out and the original
//     401 is returned to the caller.
//   - [NewHTTPClient] wraps a Transport in an *http.Client.
//
// # Architecture boundaries
//
// This package reads credentials and asks the session to refresh or log out. It
// does NOT write credentials itself and does NOT decide whether a route is
// authorized.
//
// # What this package must NOT do
//
//   - Mutate the caller's *http.Request.
//   - Retry a request more than once.
//   - Be installed on the client the session uses to reach the authentication
//     backend.
package middleware
