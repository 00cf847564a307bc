package goGate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGate/internal/gate"
	"github.com/MrEthical07/goGate/internal/rate"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/password"
	"github.com/MrEthical07/goGate/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. A Builder is single-use: the second Build fails.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  store.Store

	userStore UserStore
	auditSink AuditSink
	logger    *zap.Logger
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used when Store.Backend is StoreRedis. The
// caller keeps ownership of client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore injects a ready rate-limit store, bypassing Store.Backend.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithUserStore sets the persistence used by Register, Login, and GetUser.
func (b *Builder) WithUserStore(us UserStore) *Builder {
	b.userStore = us
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces time.Now for token issuance, the memory store, and
// audit timestamps. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component. All
// configuration failures wrap ErrInvalidConfig.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:    cfg,
		logger:    logger,
		clock:     clock,
		userStore: b.userStore,
		metrics:   NewMetrics(cfg.Metrics),
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		Now:           clock,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	engine.jwtManager = jm
	engine.gate = gate.New(jm, engine.observeAuthFailure)

	// -------- PASSWORDS --------
	hasher, err := password.New(cfg.Password.hasherOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	engine.passwordHash = hasher

	// -------- RATE LIMIT STORE --------
	rs := b.store
	if rs == nil {
		switch cfg.Store.Backend {
		case StoreRedis:
			if b.redis == nil {
				return nil, invalidConfig("redis store requires a redis client")
			}
			opts := store.RedisOptions{
				RetryBackoff: cfg.Store.RetryBackoff,
				Logger:       logger.Named("store"),
			}
			if cfg.Store.BreakerEnabled {
				opts.Breaker = &store.BreakerSettings{
					FailureThreshold: cfg.Store.BreakerFailureThreshold,
					OpenTimeout:      cfg.Store.BreakerOpenTimeout,
				}
			}
			redisStore, err := store.NewRedisStore(b.redis, opts)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			rs = redisStore
		default:
			mem := store.NewMemoryStore(
				store.WithClock(clock),
				store.WithSweepInterval(cfg.Store.SweepInterval),
				store.WithMemoryLogger(logger.Named("store")),
			)
			ctx, cancel := context.WithCancel(context.Background())
			mem.StartJanitor(ctx)
			engine.stopJanitor = cancel
			rs = mem
		}
	}
	engine.store = rs

	limiter, err := rate.New(rs, rate.Config{
		Limit:     cfg.RateLimit.Limit,
		Window:    cfg.RateLimit.Window,
		KeyPrefix: cfg.RateLimit.KeyPrefix,
		Logger:    logger.Named("rate"),
	})
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	engine.limiter = limiter

	// -------- OBSERVABILITY --------
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger.Named("audit"))

	b.built = true

	return engine, nil
}
