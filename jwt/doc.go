// Package jwt decodes access credentials into their claims without verifying the
// signature.
//
// The backend signs and verifies tokens; a client only needs the claims as a hint for
// role gating and display. Nothing decoded here is proof of authenticity, and every
// protected operation is still authorized server-side.
//
// # What this package must NOT do
//
//   - Verify signatures or hold signing keys.
//   - Perform I/O or read the credential store.
//   - Import goSession or session.
package jwt
