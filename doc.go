// Package goGate authenticates bearer tokens and throttles each authenticated
// identity with a fixed-window rate limiter whose counters live in a shared
// store (in process or in Redis).
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Request path
//
// [Engine.Admit] resolves the bearer token to an identity, then counts the request
// against that identity's budget for the resource. Authentication always runs first,
// so a forged or expired token never consumes a slot. Exactly three outcomes reach
// the caller: an identity with a [Decision], [ErrUnauthenticated], or an error
// wrapping [ErrStoreUnavailable].
//
// # Architecture boundaries
//
// goGate is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (Decision, Claims, User, MetricsSnapshot). Token signing lives in jwt, counters in
// store, and the limiter and gate under internal/.
//
// # What this package must NOT do
//
//   - Audit throttling decisions.
//   - Keep a store as a package-level singleton; the Builder owns it.
//   - Import any sub-package that re-imports goGate (no import cycles).
package goGate
