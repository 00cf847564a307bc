package goGate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

/*
====================================
TEST SINKS
====================================
*/

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) { s.count.Add(1) }

// recordingSink buffers delivered events for assertions.
type recordingSink struct {
	events chan AuditEvent
}

func newRecordingSink(n int) *recordingSink {
	return &recordingSink{events: make(chan AuditEvent, n)}
}

func (s *recordingSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// next waits for the next delivered event.
func (s *recordingSink) next(t *testing.T) AuditEvent {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

// blockingSink holds the worker inside Emit until release is signalled.
type blockingSink struct {
	release chan struct{}
}

func newBlockingSink() *blockingSink {
	return &blockingSink{release: make(chan struct{})}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) { <-s.release }

type panicSink struct {
	calls atomic.Int64
}

func (s *panicSink) Emit(context.Context, AuditEvent) {
	if s.calls.Add(1) == 1 {
		panic("sink exploded")
	}
}

func auditConfig(buffer int, dropIfFull bool) Config {
	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: buffer, DropIfFull: dropIfFull}
	return cfg
}

func registerUser(t *testing.T, engine *Engine, username, pw string) User {
	t.Helper()
	u, err := engine.Register(context.Background(), RegisterRequest{
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Username: username,
		Password: pw,
	})
	require.NoError(t, err)
	return u
}

/*
====================================
ENGINE EVENTS
====================================
*/

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = false

	sink := &countingSink{}
	engine := buildTestEngine(t, cfg, newMockUserStore(), withSink(sink))
	registerUser(t, engine, "alice", "correct-password-123")
	_, _ = engine.Login(context.Background(), "alice", "wrong-password")
	engine.Close()

	assert.Zero(t, sink.count.Load())
}

func TestAuditRegistrationAndLoginFailure(t *testing.T) {
	sink := newRecordingSink(8)
	engine := buildTestEngine(t, auditConfig(16, true), newMockUserStore(), withSink(sink))
	bob := registerUser(t, engine, "bob", "correct-password-123")

	ev := sink.next(t)
	assert.Equal(t, auditEventUserRegistered, ev.EventType)
	assert.Equal(t, bob.ID, ev.UserID)
	assert.True(t, ev.Success)

	ctx := WithClientIP(context.Background(), "198.51.100.33")
	_, err := engine.Login(ctx, "bob", "not-bobs-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	ev = sink.next(t)
	assert.Equal(t, auditEventLoginFailure, ev.EventType)
	assert.Equal(t, "198.51.100.33", ev.IP)
	assert.Equal(t, string(auditErrInvalidCredentials), ev.Error)
	assert.False(t, ev.Success)
}

func TestAuditAuthFailureUsesUniformCode(t *testing.T) {
	cfg := auditConfig(16, true)
	clock := newTestClock()
	sink := newRecordingSink(8)
	engine := buildTestEngine(t, cfg, nil, withSink(sink), withClock(clock))

	expired, err := engine.IssueToken("u1")
	require.NoError(t, err)
	clock.Advance(cfg.JWT.AccessTTL + time.Second)

	for _, token := range []string{expired, "garbage"} {
		_, _, err := engine.Admit(context.Background(), token, "/users/me")
		require.ErrorIs(t, err, ErrUnauthenticated)

		ev := sink.next(t)
		assert.Equal(t, auditEventAuthFailure, ev.EventType)
		assert.Equal(t, string(auditErrUnauthenticated), ev.Error)
	}
}

func TestAuditThrottlingNotAudited(t *testing.T) {
	sink := &countingSink{}
	engine := buildTestEngine(t, auditConfig(16, true), nil, withSink(sink))

	token, err := engine.IssueToken("u1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, _, err := engine.Admit(context.Background(), token, "/users/me")
		require.NoError(t, err)
	}
	engine.Close()

	assert.Zero(t, sink.count.Load(), "admit and reject decisions must not reach the sink")
}

func TestAuditEventsCarryNoSecrets(t *testing.T) {
	us := newMockUserStore()
	sink := newRecordingSink(8)
	engine := buildTestEngine(t, auditConfig(32, false), us, withSink(sink))

	const good, bad = "correct-password-123", "another-secret-guess"
	registerUser(t, engine, "carol", good)
	token, err := engine.Login(context.Background(), "carol", good)
	require.NoError(t, err)
	_, _ = engine.Login(context.Background(), "carol", bad)

	rec, err := us.GetUserByUsername(context.Background(), "carol")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		raw, err := json.Marshal(sink.next(t))
		require.NoError(t, err)
		for _, secret := range []string{good, bad, token, rec.PasswordHash} {
			assert.NotContains(t, string(raw), secret)
		}
	}
}

/*
====================================
DISPATCHER
====================================
*/

func TestAuditDispatcherFullBuffer(t *testing.T) {
	t.Run("drop", func(t *testing.T) {
		sink := newBlockingSink()
		d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink, nil)
		defer func() {
			close(sink.release)
			d.Close()
		}()

		start := time.Now()
		for i := 0; i < 3; i++ {
			d.Emit(context.Background(), AuditEvent{EventType: "e"})
		}
		assert.Less(t, time.Since(start), 100*time.Millisecond)
		assert.NotZero(t, d.Dropped())
	})

	t.Run("block", func(t *testing.T) {
		sink := newBlockingSink()
		d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink, nil)
		defer func() {
			close(sink.release)
			d.Close()
		}()

		d.Emit(context.Background(), AuditEvent{EventType: "e1"})
		d.Emit(context.Background(), AuditEvent{EventType: "e2"})

		done := make(chan struct{})
		go func() {
			d.Emit(context.Background(), AuditEvent{EventType: "e3"})
			close(done)
		}()

		select {
		case <-done:
			t.Fatal("expected Emit to wait for buffer space")
		case <-time.After(150 * time.Millisecond):
		}

		sink.release <- struct{}{}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("expected Emit to proceed once space freed")
		}
		assert.Zero(t, d.Dropped())
	})

	t.Run("block honours context", func(t *testing.T) {
		sink := newBlockingSink()
		d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink, nil)
		defer func() {
			close(sink.release)
			d.Close()
		}()

		d.Emit(context.Background(), AuditEvent{EventType: "e1"})
		d.Emit(context.Background(), AuditEvent{EventType: "e2"})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		d.Emit(ctx, AuditEvent{EventType: "e3"})
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	})
}

func TestAuditDispatcherCloseIdempotent(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, sink, nil)

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	d.Close()
	d.Close()
	d.Emit(context.Background(), AuditEvent{EventType: "e2"})

	assert.Equal(t, int64(1), sink.count.Load(), "queued event drains on Close, later events are ignored")
}

func TestAuditDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{}, &countingSink{}, nil)
	assert.Nil(t, d)
	d.Emit(context.Background(), AuditEvent{EventType: "e"})
	d.Close()
	assert.Zero(t, d.Dropped())
}

func TestAuditDispatcherSurvivesSinkPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	sink := &panicSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink, zap.New(core))

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	d.Emit(context.Background(), AuditEvent{EventType: "e2"})
	d.Close()

	assert.Equal(t, int64(2), sink.calls.Load())
	assert.Equal(t, 1, logs.FilterMessage("audit sink panicked").Len())
}

func TestAuditDropsLoggedAtPowersOfTwo(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := newBlockingSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink, zap.New(core))
	defer func() {
		close(sink.release)
		d.Close()
	}()

	// worker parks on the first event, the buffer takes the second
	d.Emit(context.Background(), AuditEvent{EventType: "held"})
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, 2*time.Second, time.Millisecond)
	d.Emit(context.Background(), AuditEvent{EventType: "queued"})

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "dropped"})
	}

	assert.Equal(t, uint64(5), d.Dropped())
	// drops 1, 2 and 4
	assert.Equal(t, 3, logs.FilterMessage("audit buffer full, dropping events").Len())
}

/*
====================================
SINKS
====================================
*/

func TestAuditJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginSuccess,
		UserID:    "u1",
		IP:        "127.0.0.1",
		Success:   true,
	})

	line := buf.String()
	require.True(t, strings.HasSuffix(line, "\n"), "expected one JSON line")
	assert.Contains(t, line, `"event_type":"login_success"`)
	assert.Contains(t, line, `"user_id":"u1"`)
}

func TestAuditZapSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	NewZapSink(zap.New(core)).Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginFailure,
		UserID:    "u1",
		Error:     string(auditErrInvalidCredentials),
	})

	entries := logs.FilterMessage("audit event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, auditEventLoginFailure, fields["event_type"])
	assert.Equal(t, string(auditErrInvalidCredentials), fields["error"])
	assert.NotContains(t, fields, "ip")
}

func TestChannelSinkGivesUpOnCancelledContext(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), AuditEvent{EventType: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Emit(ctx, AuditEvent{EventType: "b"})

	ev := <-sink.Events()
	assert.Equal(t, "a", ev.EventType)
	select {
	case extra := <-sink.Events():
		t.Fatalf("unexpected second event %+v", extra)
	default:
	}
}
