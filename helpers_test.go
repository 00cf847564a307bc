package goGate

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type mockUserStore struct {
	mu         sync.Mutex
	byID       map[string]UserRecord
	byUsername map[string]string
	failWith   error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		byID:       make(map[string]UserRecord),
		byUsername: make(map[string]string),
	}
}

func (s *mockUserStore) CreateUser(_ context.Context, user UserRecord) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return UserRecord{}, s.failWith
	}
	if _, ok := s.byUsername[user.Username]; ok {
		return UserRecord{}, ErrUserExists
	}
	s.byID[user.ID] = user
	s.byUsername[user.Username] = user.ID
	return user, nil
}

func (s *mockUserStore) GetUserByID(_ context.Context, id string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return UserRecord{}, s.failWith
	}
	u, ok := s.byID[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (s *mockUserStore) GetUserByUsername(_ context.Context, username string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return UserRecord{}, s.failWith
	}
	id, ok := s.byUsername[username]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *mockUserStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	s.byID[id] = u
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("test-secret-test-secret-test-sec")
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Store.SweepInterval = 0
	return cfg
}

type engineOption func(*Builder)

func withClock(c *testClock) engineOption {
	return func(b *Builder) { b.WithClock(c.Now) }
}

func withSink(sink AuditSink) engineOption {
	return func(b *Builder) { b.WithAuditSink(sink) }
}

func buildTestEngine(t testing.TB, cfg Config, us UserStore, opts ...engineOption) *Engine {
	t.Helper()

	b := New().WithConfig(cfg)
	if us != nil {
		b.WithUserStore(us)
	}
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}
