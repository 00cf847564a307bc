package goGate

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGate/password"
)

// Config is the complete Engine configuration. Start from DefaultConfig and
// override fields; Builder.Build validates the result.
type Config struct {
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Password  PasswordConfig
	Account   AccountConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls access-token issuance. SigningMethod is one of
// "hs256" (default), "hs384", "hs512", or "ed25519"; for the HS methods
// PrivateKey is the shared secret.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig is the fixed-window policy applied to every guarded resource.
// Limit 0 rejects every request.
type RateLimitConfig struct {
	Limit     int
	Window    time.Duration
	KeyPrefix string
}

// StoreBackend selects the rate-limit store variant.
type StoreBackend string

const (
	// StoreMemory keeps counters in process memory. Single replica only.
	StoreMemory StoreBackend = "memory"
	// StoreRedis keeps counters in Redis, shared by all replicas.
	StoreRedis StoreBackend = "redis"
)

// StoreConfig configures the rate-limit store built by Builder.Build when no
// store is injected with Builder.WithStore.
type StoreConfig struct {
	Backend StoreBackend

	// SweepInterval is how often the memory store drops expired windows. Zero disables sweeping.
	SweepInterval time.Duration

	// RetryBackoff is the pause before the single retry of a timed-out Redis call.
	RetryBackoff time.Duration

	BreakerEnabled          bool
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

/*
====================================
PASSWORD / ACCOUNT CONFIG
====================================
*/

// PasswordConfig selects and tunes the password hasher.
type PasswordConfig struct {
	Algorithm   string
	BcryptCost  int
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AccountConfig bounds registration input.
type AccountConfig struct {
	MinPasswordLength int
	MaxNameLength     int
	MaxUsernameLength int
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: HS256 tokens valid for
// 15 minutes, one request per 60-second window, in-memory counters, bcrypt.
// The signing secret is left empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
		},
		RateLimit: RateLimitConfig{
			Limit:     1,
			Window:    60 * time.Second,
			KeyPrefix: "rate_limiting:",
		},
		Store: StoreConfig{
			Backend:                 StoreMemory,
			SweepInterval:           time.Minute,
			RetryBackoff:            25 * time.Millisecond,
			BreakerFailureThreshold: 5,
			BreakerOpenTimeout:      10 * time.Second,
		},
		Password: PasswordConfig{
			Algorithm:   string(password.AlgorithmBcrypt),
			BcryptCost:  10,
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Account: AccountConfig{
			MinPasswordLength: 8,
			MaxNameLength:     60,
			MaxUsernameLength: 30,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

func invalidConfig(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, args...)...)
}

// Validate reports the first inconsistency in c. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return invalidConfig("JWT AccessTTL must be > 0")
	}
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "hs256", "hs384", "hs512":
		if len(c.JWT.PrivateKey) == 0 {
			return invalidConfig("%s requires a signing secret", c.JWT.SigningMethod)
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return invalidConfig("ed25519 requires PrivateKey")
		}
	default:
		return invalidConfig("unsupported JWT signing method %q", c.JWT.SigningMethod)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return invalidConfig("JWT Leeway must be within [0, 2m]")
	}

	// Rate limit
	if c.RateLimit.Limit < 0 {
		return invalidConfig("RateLimit Limit must be >= 0")
	}
	if c.RateLimit.Window <= 0 {
		return invalidConfig("RateLimit Window must be > 0")
	}

	// Store
	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	default:
		return invalidConfig("Store Backend must be %q or %q", StoreMemory, StoreRedis)
	}
	if c.Store.SweepInterval < 0 {
		return invalidConfig("Store SweepInterval must be >= 0")
	}
	if c.Store.RetryBackoff < 0 {
		return invalidConfig("Store RetryBackoff must be >= 0")
	}
	if c.Store.BreakerEnabled && c.Store.BreakerOpenTimeout <= 0 {
		return invalidConfig("Store BreakerOpenTimeout must be > 0 when the breaker is enabled")
	}

	// Password
	switch password.Algorithm(strings.ToLower(c.Password.Algorithm)) {
	case "", password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		return invalidConfig("unsupported Password Algorithm %q", c.Password.Algorithm)
	}

	// Account
	if c.Account.MinPasswordLength < 1 {
		return invalidConfig("Account MinPasswordLength must be >= 1")
	}
	if c.Account.MaxNameLength < 1 || c.Account.MaxUsernameLength < 1 {
		return invalidConfig("Account name limits must be >= 1")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalidConfig("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func (c PasswordConfig) hasherOptions() password.Options {
	return password.Options{
		Algorithm:  password.Algorithm(strings.ToLower(c.Algorithm)),
		BcryptCost: c.BcryptCost,
		Argon2: password.Config{
			Memory:      c.Memory,
			Time:        c.Time,
			Parallelism: c.Parallelism,
			SaltLength:  c.SaltLength,
			KeyLength:   c.KeyLength,
		},
	}
}
