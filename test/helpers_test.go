//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/userstore"
)

const integrationSecret = "integration-secret-integration-s"

func integrationConfig(limit int, window time.Duration) goGate.Config {
	cfg := goGate.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(integrationSecret)
	cfg.RateLimit.Limit = limit
	cfg.RateLimit.Window = window
	cfg.Store.Backend = goGate.StoreRedis
	cfg.Password.BcryptCost = bcrypt.MinCost
	return cfg
}

func newMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func newRedisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// newReplica builds an Engine over its own client to mr, as a separate
// process would.
func newReplica(t *testing.T, mr *miniredis.Miniredis, cfg goGate.Config) *goGate.Engine {
	t.Helper()

	engine, err := goGate.New().
		WithConfig(cfg).
		WithRedis(newRedisClient(t, mr)).
		WithUserStore(userstore.NewMemory()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}
