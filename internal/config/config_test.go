package config

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goGate "github.com/MrEthical07/goGate"
)

var envKeys = []string{
	"SERVER_PORT", "JWT_SECRET", "JWT_ALGORITHM", "JWT_ISSUER", "ACCESS_TOKEN_EXPIRE_MINUTES",
	"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW_SECONDS", "RATE_LIMIT_STORE", "RATE_LIMIT_FAIL_OPEN",
	"RATE_LIMIT_BREAKER", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"LOG_LEVEL", "LOG_FORMAT", "AUDIT_ENABLED",
}

// clearEnv blanks every key Load reads; blank values fall back to lower layers.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func emptyEnvFile(t *testing.T) string {
	return writeFile(t, ".env", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load("", emptyEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, "localhost:6379", s.Redis.Addr())
	assert.Equal(t, 10*time.Second, s.ShutdownTimeout())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "gogate.yaml", `
server:
  port: "9000"
jwt:
  secret: from-yaml
  access_token_expire_minutes: 30
rate_limit:
  requests: 5
  window_seconds: 10
  store: redis
redis:
  host: redis.internal
  port: 6380
`)
	t.Setenv("RATE_LIMIT_REQUESTS", "7")
	t.Setenv("JWT_SECRET", "from-env")

	s, err := Load(path, emptyEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "9000", s.Server.Port)
	assert.Equal(t, "from-env", s.JWT.Secret)
	assert.Equal(t, 30, s.JWT.AccessTokenExpireMinutes)
	assert.Equal(t, 7, s.RateLimit.Requests)
	assert.Equal(t, 10, s.RateLimit.WindowSeconds)
	assert.Equal(t, "redis", s.RateLimit.Store)
	assert.Equal(t, "redis.internal:6380", s.Redis.Addr())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range []string{"JWT_SECRET", "RATE_LIMIT_FAIL_OPEN"} {
		require.NoError(t, os.Unsetenv(k))
	}

	envFile := writeFile(t, ".env", "JWT_SECRET=dotenv-secret\nRATE_LIMIT_FAIL_OPEN=true\n")
	s, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "dotenv-secret", s.JWT.Secret)
	assert.True(t, s.RateLimit.FailOpen)
}

func TestLoadRejectsBadInput(t *testing.T) {
	clearEnv(t)

	t.Setenv("REDIS_PORT", "not-a-port")
	_, err := Load("", emptyEnvFile(t))
	assert.ErrorContains(t, err, "REDIS_PORT")

	t.Setenv("REDIS_PORT", "")
	t.Setenv("RATE_LIMIT_FAIL_OPEN", "maybe")
	_, err = Load("", emptyEnvFile(t))
	assert.ErrorContains(t, err, "RATE_LIMIT_FAIL_OPEN")

	t.Setenv("RATE_LIMIT_FAIL_OPEN", "")
	unknown := writeFile(t, "bad.yaml", "jwt:\n  secrett: typo\n")
	_, err = Load(unknown, emptyEnvFile(t))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), emptyEnvFile(t))
	assert.Error(t, err)
}

func TestEngineConfig(t *testing.T) {
	s := Defaults()
	s.JWT.Secret = "engine-secret"
	s.JWT.Algorithm = "HS512"
	s.RateLimit.Requests = 3
	s.RateLimit.WindowSeconds = 5
	s.RateLimit.Store = "Redis"
	s.RateLimit.Breaker = true

	cfg, err := s.EngineConfig()
	require.NoError(t, err)

	assert.Equal(t, []byte("engine-secret"), cfg.JWT.PrivateKey)
	assert.Equal(t, "hs512", cfg.JWT.SigningMethod)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 3, cfg.RateLimit.Limit)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, goGate.StoreRedis, cfg.Store.Backend)
	assert.True(t, cfg.Store.BreakerEnabled)
}

func TestEngineConfigRejectsInvalid(t *testing.T) {
	s := Defaults()
	_, err := s.EngineConfig()
	assert.True(t, errors.Is(err, goGate.ErrInvalidConfig), "missing secret: %v", err)

	s.JWT.Secret = "x"
	s.RateLimit.WindowSeconds = 0
	_, err = s.EngineConfig()
	assert.ErrorIs(t, err, goGate.ErrInvalidConfig)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	host, port, err := splitAddr(mr.Addr())
	require.NoError(t, err)

	client, err := NewRedisClient(context.Background(), RedisSettings{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	// go-redis normalizes -1 (disabled) to zero retries.
	assert.Equal(t, 0, client.Options().MaxRetries)

	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisSettings{Host: host, Port: port})
	assert.Error(t, err)
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	return host, port, err
}
