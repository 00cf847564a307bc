//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goGate "github.com/MrEthical07/goGate"
)

func TestReplicasShareOneBudget(t *testing.T) {
	ctx := context.Background()
	mr := newMiniredis(t)
	cfg := integrationConfig(3, time.Minute)

	a := newReplica(t, mr, cfg)
	b := newReplica(t, mr, cfg)

	replicas := []*goGate.Engine{a, b, a, b}
	for i, e := range replicas {
		d, err := e.CheckAndRecord(ctx, "u1", "/items")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if d.Count != int64(i+1) {
			t.Fatalf("call %d: expected count %d, got %d", i, i+1, d.Count)
		}
		if want := i < 3; d.Allowed != want {
			t.Fatalf("call %d: expected allowed=%v", i, want)
		}
	}
}

func TestReplicasConcurrentCountsAreExact(t *testing.T) {
	ctx := context.Background()
	mr := newMiniredis(t)
	cfg := integrationConfig(40, time.Minute)

	engines := []*goGate.Engine{newReplica(t, mr, cfg), newReplica(t, mr, cfg)}

	const calls = 100
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		seen   = make(map[int64]bool, calls)
		admits int
	)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(e *goGate.Engine) {
			defer wg.Done()
			d, err := e.CheckAndRecord(ctx, "u1", "/items")
			if err != nil {
				t.Errorf("CheckAndRecord failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[d.Count] {
				t.Errorf("count %d returned twice", d.Count)
			}
			seen[d.Count] = true
			if d.Allowed {
				admits++
			}
		}(engines[i%2])
	}
	wg.Wait()

	for c := int64(1); c <= calls; c++ {
		if !seen[c] {
			t.Fatalf("count %d never returned", c)
		}
	}
	if admits != 40 {
		t.Fatalf("expected 40 admits, got %d", admits)
	}
}

func TestWindowExpiryResetsBudget(t *testing.T) {
	ctx := context.Background()
	mr := newMiniredis(t)
	e := newReplica(t, mr, integrationConfig(1, time.Minute))

	if d, _ := e.CheckAndRecord(ctx, "u1", "/items"); !d.Allowed {
		t.Fatal("expected first call admitted")
	}
	d, err := e.CheckAndRecord(ctx, "u1", "/items")
	if err != nil {
		t.Fatalf("CheckAndRecord failed: %v", err)
	}
	if d.Allowed || d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("expected rejection with retry-after within the window, got %+v", d)
	}

	mr.FastForward(61 * time.Second)

	d, err = e.CheckAndRecord(ctx, "u1", "/items")
	if err != nil {
		t.Fatalf("CheckAndRecord failed: %v", err)
	}
	if !d.Allowed || d.Count != 1 {
		t.Fatalf("expected fresh window after expiry, got %+v", d)
	}
}

func TestKeyWithoutExpiryIsRepaired(t *testing.T) {
	ctx := context.Background()
	mr := newMiniredis(t)
	e := newReplica(t, mr, integrationConfig(5, time.Minute))

	// a counter left behind without an expiry must not pin the caller forever
	key := "rate_limiting:user:u1:endpoint:/items"
	if err := mr.Set(key, "7"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	d, err := e.CheckAndRecord(ctx, "u1", "/items")
	if err != nil {
		t.Fatalf("CheckAndRecord failed: %v", err)
	}
	if d.Allowed || d.Count != 8 {
		t.Fatalf("expected rejection at count 8, got %+v", d)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected expiry to be restored, got %s", ttl)
	}
}

func TestRedisDownSurfacesUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := newMiniredis(t)
	e := newReplica(t, mr, integrationConfig(5, time.Minute))

	token, err := e.IssueToken("u1")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	mr.Close()

	identity, _, err := e.Admit(ctx, token, "/items")
	if !errors.Is(err, goGate.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if identity != "u1" {
		t.Fatalf("expected identity u1 alongside store failure, got %q", identity)
	}
}
