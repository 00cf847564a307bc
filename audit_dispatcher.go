package goGate

import (
	"context"
	"math/bits"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// auditDispatcher hands events to the sink on a single worker goroutine.
// With DropIfFull a full buffer drops the event and counts it; otherwise
// Emit waits for space, the caller's context, or Close.
type auditDispatcher struct {
	cfg    AuditConfig
	sink   AuditSink
	logger *zap.Logger

	queue   chan AuditEvent
	stop    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool

	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *zap.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &auditDispatcher{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		queue:  make(chan AuditEvent, cfg.BufferSize),
		stop:   make(chan struct{}),
	}

	d.stopped.Add(1)
	go d.worker()

	return d
}

func (d *auditDispatcher) worker() {
	defer d.stopped.Done()

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// drain delivers whatever is already queued when Close is called.
func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

// deliver keeps a panicking sink from killing the worker.
func (d *auditDispatcher) deliver(event AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("audit sink panicked",
				zap.String("event_type", event.EventType),
				zap.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		case <-ctx.Done():
		case <-d.stop:
		}
		return
	}

	select {
	case d.queue <- event:
	case <-d.stop:
	default:
		d.recordDrop(event)
	}
}

// recordDrop counts the drop and logs on the first and then every
// power-of-two drop.
func (d *auditDispatcher) recordDrop(event AuditEvent) {
	n := d.dropped.Add(1)
	if bits.OnesCount64(n) == 1 {
		d.logger.Warn("audit buffer full, dropping events",
			zap.String("event_type", event.EventType),
			zap.Uint64("dropped_total", n),
			zap.Int("buffer_size", d.cfg.BufferSize),
		)
	}
}

func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.stopped.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
