package routegate

import (
	"context"
	"sync"
	"sync/atomic"
)

// queuedAudit carries the request context along with the event. The context
// keeps the request's values (trace, request id) but not its cancellation,
// so a sink write is not aborted because the navigation already finished.
type queuedAudit struct {
	ctx   context.Context
	event AuditEvent
}

// auditDispatcher moves guard events off the request path onto a single
// sink goroutine. With DropIfFull the guard never blocks on audit.
type auditDispatcher struct {
	dropIfFull bool
	sink       AuditSink
	wg         sync.WaitGroup
	dropped    atomic.Uint64

	// mu orders sends against Close: senders hold it shared, Close holds it
	// exclusively while closing ch, so no send can follow the close.
	mu     sync.RWMutex
	closed bool
	ch     chan queuedAudit

	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		dropIfFull: cfg.DropIfFull,
		sink:       sink,
		ch:         make(chan queuedAudit, cfg.BufferSize),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for q := range d.ch {
		d.sink.Emit(q.ctx, q.event)
	}
}

// Emit queues event. Request id and client IP missing from the event are
// taken from ctx. Events arriving after Close are discarded.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.RequestID == "" {
		event.RequestID = RequestIDFromContext(ctx)
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	q := queuedAudit{ctx: context.WithoutCancel(ctx), event: event}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.ch <- q:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- q:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close stops accepting events and waits until the buffered ones reach the
// sink. A blocking Emit in flight is let through first.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.ch)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
