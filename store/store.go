package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned when the backing store cannot answer: network
	// failure, timeout after the single retry, or an open circuit breaker.
	ErrUnavailable = errors.New("rate limit store unavailable")
	// ErrInvalidWindow is returned for a non-positive window.
	ErrInvalidWindow = errors.New("rate limit window must be positive")
)

// Store holds fixed-window counters keyed by opaque strings.
//
// IncrementAndGetCount is atomic per key: the first increment creates the key
// with count 1 and an expiry of window; later increments within the window
// return the incremented count and never move the expiry. After the expiry the
// key is gone and the next increment starts a fresh window.
//
// TimeToLive returns the remaining lifetime of key, or zero when the key is
// absent, has no expiry, or the store cannot tell.
type Store interface {
	IncrementAndGetCount(ctx context.Context, key string, window time.Duration) (int64, error)
	TimeToLive(ctx context.Context, key string) (time.Duration, error)
}

// Pinger is implemented by stores that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
