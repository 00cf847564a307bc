// Package jwt issues and verifies the signed, expiring identity tokens that
// carry a caller's subject between login and every guarded request.
//
// # Failure model
//
// Decode distinguishes exactly two causes: [ErrExpired] for a correctly signed
// token past its expiry, and [ErrInvalid] for everything else. Callers that face
// the network are expected to collapse both into one unauthenticated response.
//
// # What this package must NOT do
//
//   - Keep per-token state (no revocation lists, no caches).
//   - Import any other goGate package.
package jwt
