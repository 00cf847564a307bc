package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is a single-process Store. All increments are serialized under
// one mutex; expired entries are treated as absent and replaced on the next
// increment, and StartJanitor reclaims the ones nobody touches again.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	now        func() time.Time
	sweepEvery time.Duration
	logger     *zap.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithSweepInterval sets how often StartJanitor removes expired entries.
// Zero disables the janitor.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.sweepEvery = d }
}

// WithMemoryLogger sets the logger used by the janitor.
func WithMemoryLogger(logger *zap.Logger) MemoryOption {
	return func(s *MemoryStore) { s.logger = logger }
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]*memoryEntry),
		now:        time.Now,
		sweepEvery: time.Minute,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// IncrementAndGetCount implements Store.
func (s *MemoryStore) IncrementAndGetCount(ctx context.Context, key string, window time.Duration) (int64, error) {
	if window <= 0 {
		return 0, ErrInvalidWindow
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &memoryEntry{expiresAt: now.Add(window)}
		s.entries[key] = entry
	}
	entry.count++

	return entry.count, nil
}

// TimeToLive implements Store.
func (s *MemoryStore) TimeToLive(ctx context.Context, key string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		return 0, nil
	}
	return entry.expiresAt.Sub(now), nil
}

// Ping implements Pinger. The in-process store is always reachable.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of entries held, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep deletes expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Sweep every sweep interval until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if removed := s.Sweep(); removed > 0 {
					s.logger.Debug("swept expired rate limit windows", zap.Int("removed", removed))
				}
			}
		}
	}()
}
