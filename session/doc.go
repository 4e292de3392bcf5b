// Package session persists the client's credentials: the access credential, the
// refresh credential, and the role cached at login.
//
// # Stores
//
//   - [MemoryStore] keeps credentials in process memory.
//   - [FileStore] keeps them in a 0600 JSON file that survives restarts and is shared
//     by every process pointed at the same path.
//   - [RedisStore] keeps them in a single Redis hash, for clients that share a session
//     across hosts.
//
// Every [Store] implements plain key-value semantics over the three [Kind]s. Clear
// removes all of them at once: a concurrent reader sees either the full pair or
// nothing, never a half-cleared session.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT decode tokens, talk to the
// authentication backend, or decide whether a session is valid; those belong to the
// Client.
//
// # What this package must NOT do
//
//   - Import goSession, jwt, or middleware (no upward imports).
//   - Validate or transform credential values.
package session
