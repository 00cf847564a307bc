// Package gate resolves bearer tokens into identities.
//
// # Architecture boundaries
//
// The gate sits in front of rate limiting: a request that does not resolve
// never touches a counter. Failure causes are surfaced only through the
// FailureFunc hook so logs and metrics can tell them apart while clients
// cannot.
//
// # What this package must NOT do
//
//   - Leak whether a token was expired, forged, or malformed in its return value.
//   - Perform I/O.
package gate
