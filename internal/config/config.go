// Package config loads the service settings of cmd/gogate-server: built-in
// defaults, then an optional YAML file, then a .env file, then the process
// environment. Later layers win.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	goGate "github.com/MrEthical07/goGate"
)

// Settings is the complete service configuration.
type Settings struct {
	Server    ServerSettings    `yaml:"server"`
	JWT       JWTSettings       `yaml:"jwt"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
	Redis     RedisSettings     `yaml:"redis"`
	Log       LogSettings       `yaml:"log"`
	Audit     bool              `yaml:"audit"`
}

type ServerSettings struct {
	Port                   string `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

type JWTSettings struct {
	Secret                   string `yaml:"secret"`
	Algorithm                string `yaml:"algorithm"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes"`
	Issuer                   string `yaml:"issuer"`
}

type RateLimitSettings struct {
	Requests      int    `yaml:"requests"`
	WindowSeconds int    `yaml:"window_seconds"`
	Store         string `yaml:"store"`
	FailOpen      bool   `yaml:"fail_open"`
	Breaker       bool   `yaml:"breaker"`
}

type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Server: ServerSettings{
			Port:                   "8000",
			ShutdownTimeoutSeconds: 10,
		},
		JWT: JWTSettings{
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 15,
		},
		RateLimit: RateLimitSettings{
			Requests:      1,
			WindowSeconds: 60,
			Store:         "memory",
		},
		Redis: RedisSettings{
			Host: "localhost",
			Port: 6379,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds Settings from path (a YAML file, optional when empty) and the
// environment. envFiles are read with godotenv before the environment is
// consulted; with none given, a missing ./.env is ignored.
func Load(path string, envFiles ...string) (Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := decodeYAML(data, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Settings{}, fmt.Errorf("failed to load env files: %w", err)
	}

	if err := applyEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func decodeYAML(data []byte, s *Settings) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(s)
}

func applyEnv(s *Settings) error {
	var err error

	s.Server.Port = getEnv("SERVER_PORT", s.Server.Port)

	s.JWT.Secret = getEnv("JWT_SECRET", s.JWT.Secret)
	s.JWT.Algorithm = getEnv("JWT_ALGORITHM", s.JWT.Algorithm)
	s.JWT.Issuer = getEnv("JWT_ISSUER", s.JWT.Issuer)
	if s.JWT.AccessTokenExpireMinutes, err = envInt("ACCESS_TOKEN_EXPIRE_MINUTES", s.JWT.AccessTokenExpireMinutes); err != nil {
		return err
	}

	if s.RateLimit.Requests, err = envInt("RATE_LIMIT_REQUESTS", s.RateLimit.Requests); err != nil {
		return err
	}
	if s.RateLimit.WindowSeconds, err = envInt("RATE_LIMIT_WINDOW_SECONDS", s.RateLimit.WindowSeconds); err != nil {
		return err
	}
	s.RateLimit.Store = getEnv("RATE_LIMIT_STORE", s.RateLimit.Store)
	if s.RateLimit.FailOpen, err = envBool("RATE_LIMIT_FAIL_OPEN", s.RateLimit.FailOpen); err != nil {
		return err
	}
	if s.RateLimit.Breaker, err = envBool("RATE_LIMIT_BREAKER", s.RateLimit.Breaker); err != nil {
		return err
	}

	s.Redis.Host = getEnv("REDIS_HOST", s.Redis.Host)
	if s.Redis.Port, err = envInt("REDIS_PORT", s.Redis.Port); err != nil {
		return err
	}
	s.Redis.Password = getEnv("REDIS_PASSWORD", s.Redis.Password)
	if s.Redis.DB, err = envInt("REDIS_DB", s.Redis.DB); err != nil {
		return err
	}

	s.Log.Level = getEnv("LOG_LEVEL", s.Log.Level)
	s.Log.Format = getEnv("LOG_FORMAT", s.Log.Format)

	if s.Audit, err = envBool("AUDIT_ENABLED", s.Audit); err != nil {
		return err
	}
	return nil
}

// EngineConfig maps s onto a goGate.Config and validates it.
func (s Settings) EngineConfig() (goGate.Config, error) {
	cfg := goGate.DefaultConfig()

	cfg.JWT.PrivateKey = []byte(s.JWT.Secret)
	cfg.JWT.SigningMethod = strings.ToLower(s.JWT.Algorithm)
	cfg.JWT.AccessTTL = time.Duration(s.JWT.AccessTokenExpireMinutes) * time.Minute
	cfg.JWT.Issuer = s.JWT.Issuer

	cfg.RateLimit.Limit = s.RateLimit.Requests
	cfg.RateLimit.Window = time.Duration(s.RateLimit.WindowSeconds) * time.Second

	cfg.Store.Backend = goGate.StoreBackend(strings.ToLower(s.RateLimit.Store))
	cfg.Store.BreakerEnabled = s.RateLimit.Breaker

	cfg.Audit.Enabled = s.Audit

	if err := cfg.Validate(); err != nil {
		return goGate.Config{}, err
	}
	return cfg, nil
}

// ShutdownTimeout returns the graceful shutdown budget.
func (s Settings) ShutdownTimeout() time.Duration {
	if s.Server.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.Server.ShutdownTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
