// Package testbackend runs an in-process fake of the ride-coordination backend for
// tests: the authentication token endpoints plus the poll and trip endpoints the
// api package reads.
//
// Access credentials are real HS256 JWTs signed with a per-backend secret. Every
// access credential carries a generation; [Backend.ExpireAccess] bumps the current
// generation so every credential issued before it is rejected with 401, which is
// how tests produce a burst of concurrent authentication failures.
package testbackend
