package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func newTestRedisStore(t *testing.T, opts RedisOptions) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr, rdb := newTestRedis(t)
	s, err := NewRedisStore(rdb, opts)
	require.NoError(t, err)
	return mr, s
}

func TestRedisStoreIncrementSetsExpiryOnCreate(t *testing.T) {
	mr, s := newTestRedisStore(t, RedisOptions{KeyPrefix: "rl:"})
	ctx := context.Background()

	count, err := s.IncrementAndGetCount(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, mr.Exists("rl:k"))
	assert.Equal(t, time.Minute, mr.TTL("rl:k"))

	ttl, err := s.TimeToLive(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestRedisStoreDoesNotExtendExpiry(t *testing.T) {
	mr, s := newTestRedisStore(t, RedisOptions{})
	ctx := context.Background()

	_, err := s.IncrementAndGetCount(ctx, "k", time.Minute)
	require.NoError(t, err)

	mr.FastForward(30 * time.Second)
	count, err := s.IncrementAndGetCount(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ttl, err := s.TimeToLive(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)
}

func TestRedisStoreWindowExpires(t *testing.T) {
	mr, s := newTestRedisStore(t, RedisOptions{})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		count, err := s.IncrementAndGetCount(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}

	mr.FastForward(time.Minute)
	count, err := s.IncrementAndGetCount(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStoreRepairsKeyWithoutExpiry(t *testing.T) {
	mr, s := newTestRedisStore(t, RedisOptions{})
	require.NoError(t, mr.Set("k", "5"))

	count, err := s.IncrementAndGetCount(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestRedisStoreTimeToLiveUnknown(t *testing.T) {
	mr, s := newTestRedisStore(t, RedisOptions{})
	ctx := context.Background()

	ttl, err := s.TimeToLive(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	require.NoError(t, mr.Set("persistent", "1"))
	ttl, err = s.TimeToLive(ctx, "persistent")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestRedisStoreConcurrentIncrementsAreDistinct(t *testing.T) {
	_, s := newTestRedisStore(t, RedisOptions{})
	ctx := context.Background()

	const workers = 50
	results := make([]int64, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			count, err := s.IncrementAndGetCount(ctx, "hot", time.Minute)
			if err != nil {
				t.Errorf("increment: %v", err)
				return
			}
			results[i] = count
		}(i)
	}
	close(start)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, v := range results {
		require.Equal(t, int64(i+1), v)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, s := newTestRedisStore(t, RedisOptions{})
	mr.Close()

	_, err := s.IncrementAndGetCount(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.TimeToLive(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, s.Ping(context.Background()), ErrUnavailable)
}

func TestRedisStoreBreakerOpensAfterFailures(t *testing.T) {
	mr, s := newTestRedisStore(t, RedisOptions{
		Breaker: &BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Minute},
	})
	mr.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.IncrementAndGetCount(ctx, "k", time.Minute)
		require.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := s.IncrementAndGetCount(ctx, "k", time.Minute)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestRedisStoreRetriesTimeoutOnce(t *testing.T) {
	_, s := newTestRedisStore(t, RedisOptions{RetryBackoff: time.Millisecond})
	ctx := context.Background()

	calls := 0
	res, err := s.do(ctx, "test", func(context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, context.DeadlineExceeded
		}
		return int64(7), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res)
	assert.Equal(t, 2, calls)

	calls = 0
	_, err = s.do(ctx, "test", func(context.Context) (interface{}, error) {
		calls++
		return nil, context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls)
}

func TestRedisStoreDoesNotRetryOtherErrors(t *testing.T) {
	_, s := newTestRedisStore(t, RedisOptions{RetryBackoff: time.Millisecond})

	calls := 0
	_, err := s.do(context.Background(), "test", func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("READONLY")
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestRedisStoreRejectsInvalidConstruction(t *testing.T) {
	_, err := NewRedisStore(nil, RedisOptions{})
	assert.Error(t, err)

	_, rdb := newTestRedis(t)
	_, err = NewRedisStore(rdb, RedisOptions{RetryBackoff: -time.Second})
	assert.Error(t, err)

	s, err := NewRedisStore(rdb, RedisOptions{})
	require.NoError(t, err)
	_, err = s.IncrementAndGetCount(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
