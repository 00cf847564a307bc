// Package rate implements fixed-window admission control over a store.Store.
//
// # Window semantics
//
// Each (identity, resource) pair owns one counter key. The first request
// creates the key with an expiry of one window; requests inside the window
// increment it; the window ends when the key expires. A request is admitted
// while the post-increment count is at most the limit. Rejected requests are
// counted too, so hammering a resource never shortens the wait.
//
// Key format: <prefix>user:<identity>:endpoint:<resource>, default prefix
// "rate_limiting:".
//
// # What this package must NOT do
//
//   - Authenticate. Callers pass an identity that is already verified.
//   - Decide what to do when the store is down (the error goes to the caller).
//   - Be imported outside the goGate module.
package rate
