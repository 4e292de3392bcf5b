// Package permission defines the closed set of rider roles and the role sets used
// to gate navigation.
//
// # Roles
//
// Exactly three roles exist: [RoleStudent], [RoleDriver] and [RoleAdmin]. Parsing is
// case-insensitive. Anything else, including the backend's "unknown" placeholder,
// parses to [RoleNone], which never matches a [RoleSet].
//
// # Architecture boundaries
//
// This package owns role normalization and membership checks. It does NOT read
// credentials, decode tokens, or decide redirects; those belong to the Client and
// the route Guard.
//
// # What this package must NOT do
//
//   - Import goSession, jwt, session, or route.
//   - Treat an empty or unknown role as a wildcard.
package permission
