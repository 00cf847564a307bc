package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goGate/store"
	"go.uber.org/zap"
)

const (
	// DefaultLimit is the number of requests admitted per window when unset.
	DefaultLimit = 1
	// DefaultWindow is the window length when unset.
	DefaultWindow = 60 * time.Second
	// DefaultKeyPrefix namespaces counter keys in a shared store.
	DefaultKeyPrefix = "rate_limiting:"
)

// Config holds fixed-window limiter parameters. They are read once by New.
//
// The zero Config means DefaultLimit per DefaultWindow. Once either Limit or
// Window is set, Window must be > 0 or New returns ErrInvalidConfig.
type Config struct {
	Limit     int
	Window    time.Duration
	KeyPrefix string
	Logger    *zap.Logger
}

// Decision is the outcome of one CheckAndRecord call.
type Decision struct {
	Allowed bool
	// Count is the counter value after this call was recorded.
	Count int64
	Limit int
	// RetryAfter is set on rejection: time until the window ends.
	RetryAfter time.Duration
}

// Remaining is the number of further requests the current window admits.
func (d Decision) Remaining() int {
	left := int64(d.Limit) - d.Count
	if left < 0 {
		return 0
	}
	return int(left)
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below one
// for a rejection.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter enforces a fixed window of Limit requests per Window for each
// (identity, resource) pair, counting in a shared store.Store.
type Limiter struct {
	store  store.Store
	config Config
	logger *zap.Logger
}

// New validates cfg and returns a Limiter over s. Zero Limit and Window take
// their defaults only when both are unset; an explicit Limit of 0 is honored
// when Window is set, and then rejects every request.
func New(s store.Store, cfg Config) (*Limiter, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if cfg.Limit == 0 && cfg.Window == 0 {
		cfg.Limit = DefaultLimit
		cfg.Window = DefaultWindow
	}
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0", ErrInvalidConfig)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be > 0", ErrInvalidConfig)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Limiter{store: s, config: cfg, logger: logger}, nil
}

// Limit returns the configured per-window request budget.
func (l *Limiter) Limit() int { return l.config.Limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.config.Window }

// CheckAndRecord counts this request against identity's budget for resource
// and reports whether it is admitted. Every call is recorded, admitted or not.
//
// A store failure is returned as an error wrapping store.ErrUnavailable; a
// rejection is a Decision, never an error.
func (l *Limiter) CheckAndRecord(ctx context.Context, identity, resource string) (Decision, error) {
	key := l.Key(identity, resource)

	count, err := l.store.IncrementAndGetCount(ctx, key, l.config.Window)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed: count <= int64(l.config.Limit),
		Count:   count,
		Limit:   l.config.Limit,
	}
	if d.Allowed {
		return d, nil
	}

	ttl, err := l.store.TimeToLive(ctx, key)
	if err != nil {
		// The increment already committed; fall back to a full window.
		l.logger.Debug("ttl lookup failed, using window for retry-after",
			zap.String("key", key),
			zap.Error(err),
		)
		ttl = 0
	}
	if ttl <= 0 {
		ttl = l.config.Window
	}
	d.RetryAfter = ttl

	return d, nil
}
