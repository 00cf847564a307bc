package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultRetryBackoff is the pause before the single retry of a timed-out operation.
const DefaultRetryBackoff = 25 * time.Millisecond

// incrementScript increments KEYS[1] and sets its expiry (ARGV[1], ms) only
// when this call created the key. A key found without any expiry is given
// one so a stray write can never pin a window open forever.
var incrementScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 or redis.call('PTTL', KEYS[1]) == -1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// BreakerSettings configures the optional circuit breaker around Redis calls.
type BreakerSettings struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	KeyPrefix    string
	RetryBackoff time.Duration
	Breaker      *BreakerSettings
	Logger       *zap.Logger
}

// RedisStore is a Store shared by every replica that talks to the same Redis.
// Each increment is one EVALSHA round trip.
type RedisStore struct {
	client       redis.UniversalClient
	prefix       string
	retryBackoff time.Duration
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

// NewRedisStore wraps client. The caller keeps ownership of client and closes it.
func NewRedisStore(client redis.UniversalClient, opts RedisOptions) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if opts.RetryBackoff < 0 {
		return nil, errors.New("retry backoff must be >= 0")
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &RedisStore{
		client:       client,
		prefix:       opts.KeyPrefix,
		retryBackoff: opts.RetryBackoff,
		logger:       logger,
	}
	if opts.Breaker != nil {
		s.breaker = newBreaker(*opts.Breaker, logger)
	}
	return s, nil
}

func newBreaker(cfg BreakerSettings, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "rate-limit-store"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	threshold := cfg.FailureThreshold

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("rate limit store circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// IncrementAndGetCount implements Store.
func (s *RedisStore) IncrementAndGetCount(ctx context.Context, key string, window time.Duration) (int64, error) {
	if window <= 0 {
		return 0, ErrInvalidWindow
	}
	windowMS := window.Milliseconds()
	if windowMS < 1 {
		windowMS = 1
	}

	res, err := s.do(ctx, "increment", func(ctx context.Context) (interface{}, error) {
		return incrementScript.Run(ctx, s.client, []string{s.prefix + key}, windowMS).Result()
	})
	if err != nil {
		return 0, err
	}

	count, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: increment script returned unexpected type %T", ErrUnavailable, res)
	}
	return count, nil
}

// TimeToLive implements Store.
func (s *RedisStore) TimeToLive(ctx context.Context, key string) (time.Duration, error) {
	res, err := s.do(ctx, "ttl", func(ctx context.Context) (interface{}, error) {
		return s.client.PTTL(ctx, s.prefix+key).Result()
	})
	if err != nil {
		return 0, err
	}

	ttl, _ := res.(time.Duration)
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// Ping implements Pinger.
func (s *RedisStore) Ping(ctx context.Context) error {
	_, err := s.do(ctx, "ping", func(ctx context.Context) (interface{}, error) {
		return s.client.Ping(ctx).Result()
	})
	return err
}

// do runs fn behind the breaker, retrying once after retryBackoff when the
// first attempt timed out and the caller's context is still live.
func (s *RedisStore) do(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}

	attempt := func() (interface{}, error) {
		res, err := fn(ctx)
		if err == nil || !isTimeout(err) || ctx.Err() != nil {
			return res, err
		}

		s.logger.Debug("rate limit store timeout, retrying once",
			zap.String("op", op),
			zap.Duration("backoff", s.retryBackoff),
			zap.Error(err),
		)
		timer := time.NewTimer(s.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}
		return fn(ctx)
	}

	var (
		res interface{}
		err error
	)
	if s.breaker != nil {
		res, err = s.breaker.Execute(attempt)
	} else {
		res, err = attempt()
	}
	if err != nil {
		s.logger.Warn("rate limit store operation failed",
			zap.String("op", op),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return res, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
