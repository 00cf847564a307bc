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
	"go.uber.org/zap"
)

// Engine is the assembled gate: token service, rate limiter over a shared
// store, password hasher, and user flows. Build one with New().Build(); it is
// safe for concurrent use and must be closed when no longer needed.
type Engine struct {
	config       Config
	logger       *zap.Logger
	clock        func() time.Time
	jwtManager   *jwt.Manager
	gate         *gate.Gate
	store        store.Store
	limiter      *rate.Limiter
	passwordHash password.Hasher
	userStore    UserStore
	dummy        dummyHash
	audit        *auditDispatcher
	metrics      *Metrics
	stopJanitor  context.CancelFunc
}

// Close stops background work and flushes pending audit events. A Redis
// client passed to the Builder is not closed.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.stopJanitor != nil {
		e.stopJanitor()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the Engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// RateLimit returns the configured per-window request budget and window length.
func (e *Engine) RateLimit() (int, time.Duration) {
	if e == nil || e.limiter == nil {
		return 0, 0
	}
	return e.limiter.Limit(), e.limiter.Window()
}

// TokenTTL returns the lifetime of issued access tokens.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.jwtManager == nil {
		return 0
	}
	return e.jwtManager.TTL()
}

// Store returns the rate-limit store the Engine counts in.
func (e *Engine) Store() store.Store {
	if e == nil {
		return nil
	}
	return e.store
}

// Ping reports whether the rate-limit store is reachable. Stores without a
// liveness check are always considered healthy.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if p, ok := e.store.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// IssueToken signs an access token for subject.
func (e *Engine) IssueToken(subject string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	token, err := e.jwtManager.Encode(subject)
	if err != nil {
		return "", err
	}
	e.metricInc(MetricTokenIssued)
	return token, nil
}

// DecodeToken verifies token and returns its claims. Unlike Resolve it
// reports the cause: ErrTokenExpired or ErrTokenInvalid.
func (e *Engine) DecodeToken(token string) (Claims, error) {
	if e == nil || e.jwtManager == nil {
		return Claims{}, ErrEngineNotReady
	}
	c, err := e.jwtManager.Decode(token)
	if err != nil {
		return Claims{}, err
	}

	claims := Claims{Subject: c.Subject}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time
	}
	return claims, nil
}

// Resolve returns the identity carried by token. Every failure is
// ErrUnauthenticated.
func (e *Engine) Resolve(ctx context.Context, token string) (string, error) {
	if e == nil || e.gate == nil {
		return "", ErrEngineNotReady
	}
	identity, err := e.gate.Resolve(token)
	if err != nil {
		e.emitAudit(ctx, auditEventAuthFailure, false, "", err, nil)
		return "", err
	}
	return identity, nil
}

// CheckAndRecord counts one request by identity against resource. Store
// failures wrap ErrStoreUnavailable; a rejection is a Decision, not an error.
func (e *Engine) CheckAndRecord(ctx context.Context, identity, resource string) (Decision, error) {
	if e == nil || e.limiter == nil {
		return Decision{}, ErrEngineNotReady
	}

	d, err := e.limiter.CheckAndRecord(ctx, identity, resource)
	if err != nil {
		e.metricInc(MetricStoreUnavailable)
		e.logger.Warn("rate limit store failure",
			zap.String("resource", resource),
			zap.Error(err),
		)
		if !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return Decision{}, err
	}

	if d.Allowed {
		e.metricInc(MetricAdmitAllowed)
	} else {
		e.metricInc(MetricAdmitRejected)
	}
	return d, nil
}

// Admit authenticates bearerToken and then records the request against the
// caller's budget for resource. Authentication comes first: a request that
// fails it never touches the store.
//
// The error is ErrUnauthenticated, an error wrapping ErrStoreUnavailable, or
// nil. On a store failure the resolved identity is still returned so callers
// that fail open can proceed.
func (e *Engine) Admit(ctx context.Context, bearerToken, resource string) (string, Decision, error) {
	if e == nil || e.gate == nil || e.limiter == nil {
		return "", Decision{}, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricAdmitLatency, time.Since(start))
		}
	}()

	identity, err := e.Resolve(ctx, bearerToken)
	if err != nil {
		return "", Decision{}, err
	}

	d, err := e.CheckAndRecord(ctx, identity, resource)
	if err != nil {
		return identity, Decision{}, err
	}
	return identity, d, nil
}

func (e *Engine) observeAuthFailure(cause error) {
	reason := "invalid"
	if errors.Is(cause, jwt.ErrExpired) {
		reason = "expired"
		e.metricInc(MetricAuthExpired)
	} else {
		e.metricInc(MetricAuthInvalid)
	}
	e.logger.Debug("token rejected",
		zap.String("reason", reason),
		zap.Error(cause),
	)
}
