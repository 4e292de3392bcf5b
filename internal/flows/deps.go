package flows

import "net/http"

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Deps groups flow dependency sets. The root Client builds this once and
// delegates to the matching flow implementation.
type Deps struct {
	Login   LoginDeps
	Verify  VerifyDeps
	Refresh RefreshDeps
	Logout  LogoutDeps
}
