// Command gogate-loadtest drives concurrent CheckAndRecord calls through an
// Engine and checks that every counter advanced without loss or duplication.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/internal/logging"
)

const resource = "/loadtest"

func main() {
	var (
		users       = flag.Int("users", 100, "number of distinct identities")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "total CheckAndRecord calls")
		limit       = flag.Int("limit", 1000, "requests admitted per identity per window")
		backend     = flag.String("store", "memory", "rate-limit store: memory or redis")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		logLevel    = flag.String("log-level", "error", "log level")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 || *limit < 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0 and limit >= 0")
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: "console", Output: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}

	cfg := goGate.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("loadtest-secret-loadtest-secret!")
	cfg.RateLimit.Limit = *limit
	cfg.RateLimit.Window = time.Hour
	cfg.Store.SweepInterval = 0
	cfg.Metrics.EnableLatencyHistograms = true

	builder := goGate.New().WithConfig(cfg).WithLogger(logger)

	if *backend == string(goGate.StoreRedis) {
		client, cleanup, err := redisClient(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		cfg.Store.Backend = goGate.StoreRedis
		builder = builder.WithConfig(cfg).WithRedis(client)
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	res := run(context.Background(), engine, *users, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("check_and_record", res.stats)
	fmt.Printf("admitted=%d rejected=%d\n", res.admitted, res.rejected)

	failed := false
	for id, counts := range res.counts {
		if err := verifyCounts(counts); err != nil {
			fmt.Fprintf(os.Stderr, "identity %s: %v\n", id, err)
			failed = true
		}
	}
	if want := expectedAdmitted(res.counts, *limit); res.admitted != want {
		fmt.Fprintf(os.Stderr, "admitted %d, want %d\n", res.admitted, want)
		failed = true
	}
	if failed || res.stats.failures > 0 {
		logger.Error("load test failed", zap.Int64("store_failures", res.stats.failures))
		os.Exit(1)
	}
	fmt.Println("counters consistent")
}

func redisClient(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

type result struct {
	stats    phaseStats
	counts   map[string][]int64
	admitted int64
	rejected int64
}

func run(ctx context.Context, engine *goGate.Engine, users, ops, concurrency int) result {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		admitted  int64
		rejected  int64
		latencies = make([]time.Duration, 0, ops)
		counts    = make(map[string][]int64, users)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				id := fmt.Sprintf("user-%d", r.Intn(users))
				t0 := time.Now()
				d, err := engine.CheckAndRecord(ctx, id, resource)
				elapsed := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else if d.Allowed {
					atomic.AddInt64(&admitted, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}

				mu.Lock()
				latencies = append(latencies, elapsed)
				if err == nil {
					counts[id] = append(counts[id], d.Count)
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	return result{
		stats:    computeStats(time.Since(start), latencies, failures),
		counts:   counts,
		admitted: admitted,
		rejected: rejected,
	}
}

// verifyCounts reports an error unless counts is a permutation of 1..len(counts).
func verifyCounts(counts []int64) error {
	sorted := append([]int64(nil), counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, c := range sorted {
		if c != int64(i+1) {
			return fmt.Errorf("count sequence broken at position %d: got %d", i, c)
		}
	}
	return nil
}

func expectedAdmitted(counts map[string][]int64, limit int) int64 {
	var total int64
	for _, c := range counts {
		n := len(c)
		if n > limit {
			n = limit
		}
		total += int64(n)
	}
	return total
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
