// Package events implements async delivery of session lifecycle events.
//
// # Components
//
//   - [Event] records one session transition as a [Kind] and an [Outcome].
//   - [Sink] is the consumer interface, with channel, JSON lines and func adapters.
//   - [Dispatcher] is a buffered relay that drops or blocks when full, counts drops
//     per kind and drains within a deadline on Close.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that belongs to the Client.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on session state.
//   - Import goSession or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package events
