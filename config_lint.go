package goGate

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGate/password"
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one questionable but valid configuration choice.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of warnings produced by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing every warning at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports choices that pass Validate but are risky in production.
// It never mutates c.
func (c Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	switch strings.ToLower(c.JWT.SigningMethod) {
	case "hs256", "hs384", "hs512":
		if len(c.JWT.PrivateKey) < 32 {
			add("secret_short", LintHigh, "HMAC secret is shorter than 32 bytes")
		}
	}
	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT leeway above 1m widens the replay window")
	}
	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn, "access tokens live longer than 1h and cannot be revoked")
	}

	if c.RateLimit.Limit == 0 {
		add("limit_zero", LintHigh, "rate limit of 0 rejects every guarded request")
	}

	switch c.Store.Backend {
	case StoreMemory:
		add("memory_store_single_node", LintInfo, "in-memory counters are not shared between replicas")
		if c.Store.SweepInterval == 0 {
			add("sweep_disabled", LintWarn, "expired windows are only reclaimed when their key is reused")
		}
	case StoreRedis:
		if !c.Store.BreakerEnabled {
			add("breaker_disabled", LintInfo, "every request waits on Redis while it is down")
		}
	}

	switch password.Algorithm(strings.ToLower(c.Password.Algorithm)) {
	case "", password.AlgorithmBcrypt:
		if c.Password.BcryptCost != 0 && c.Password.BcryptCost < 10 {
			add("bcrypt_cost_low", LintWarn, "bcrypt cost below 10")
		}
	case password.AlgorithmArgon2id:
		if c.Password.Memory < 64*1024 {
			add("argon2_memory_low", LintWarn, "argon2id memory below 64 MiB")
		}
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "login and registration events are not audited")
	}

	return ws
}
