// Package middleware adapts goGate.Engine to net/http.
//
// # Guards
//
//   - [Guard] authenticates, then rate limits per (identity, route pattern).
//   - [RequireStrict] is Guard that never fails open.
//   - [RequireJWTOnly] authenticates only; no store round trip.
//
// Each guard reads the Authorization header and, on success, stores the
// identity in the request context for [IdentityFromContext].
//
// # Responses
//
// Rejections carry a JSON body {"detail": "..."}: 401 with WWW-Authenticate: Bearer,
// 429 with Retry-After in whole seconds, 503 on store outage. Admitted requests
// get X-RateLimit-Limit and X-RateLimit-Remaining.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Talk to the rate limit store (Engine handles I/O).
//   - Tell the client why a token was rejected.
package middleware
