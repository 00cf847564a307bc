// Package store provides the counter stores behind fixed-window rate limiting.
//
// # Variants
//
//   - [MemoryStore] serves a single process. Entries expire passively and an
//     optional janitor sweeps them so memory stays bounded by live windows.
//   - [RedisStore] serves many replicas. Increment-and-expire runs as one Lua
//     script, so creation, counting, and the one-time expiry are a single atomic
//     round trip.
//
// Both variants set the expiry exactly once, when a key is created, and never
// extend it.
//
// # Failure model
//
// RedisStore retries a timed-out operation once after a short pause, then
// reports [ErrUnavailable]. An optional circuit breaker short-circuits calls
// while Redis is down, also as [ErrUnavailable]. Whether to admit or refuse
// traffic in that state is the caller's decision.
//
// # What this package must NOT do
//
//   - Know about identities, resources, or limits. Keys are opaque.
//   - Offer a delete or reset operation. Windows end only by expiry.
//   - Own the Redis client lifecycle (callers close their clients).
package store
