package routegate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu     sync.Mutex
	events []AuditEvent
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *blockingSink) Emit(_ context.Context, event AuditEvent) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *blockingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestAuditDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatalf("expected nil dispatcher when audit is disabled")
	}
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatalf("nil dispatcher must report zero drops")
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := newBlockingSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	d.Emit(context.Background(), AuditEvent{ID: "1"})
	select {
	case <-sink.started:
	case <-time.After(time.Second):
		t.Fatalf("dispatcher never delivered the first event")
	}

	d.Emit(context.Background(), AuditEvent{ID: "2"})
	d.Emit(context.Background(), AuditEvent{ID: "3"})

	if got := d.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped event, got %d", got)
	}

	close(sink.release)
	d.Close()

	if got := sink.count(); got != 2 {
		t.Fatalf("expected 2 delivered events, got %d", got)
	}
}

func TestAuditDispatcherBlockingHonorsContext(t *testing.T) {
	sink := newBlockingSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), AuditEvent{ID: "1"})
	<-sink.started
	d.Emit(context.Background(), AuditEvent{ID: "2"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Emit(ctx, AuditEvent{ID: "3"})

	if got := d.Dropped(); got != 1 {
		t.Fatalf("expected cancelled emit to count as dropped, got %d", got)
	}

	close(sink.release)
	d.Close()
}

func TestAuditDispatcherIgnoresEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)
	d.Close()
	d.Close()

	d.Emit(context.Background(), AuditEvent{ID: "late"})
	select {
	case e := <-sink.Events():
		t.Fatalf("unexpected event after close: %+v", e)
	default:
	}
}

type ctxRecordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
	errs   []error
}

func (s *ctxRecordingSink) Emit(ctx context.Context, event AuditEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.errs = append(s.errs, ctx.Err())
	s.mu.Unlock()
}

func (s *ctxRecordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestAuditDispatcherTakesRequestMetadataFromContext(t *testing.T) {
	sink := &ctxRecordingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)

	ctx, cancel := context.WithCancel(WithClientIP(WithRequestID(context.Background(), "req-9"), "198.51.100.7"))
	d.Emit(ctx, AuditEvent{ID: "a"})
	d.Emit(ctx, AuditEvent{ID: "b", RequestID: "explicit"})
	cancel()
	d.Close()

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
	if e := sink.events[0]; e.RequestID != "req-9" || e.IP != "198.51.100.7" {
		t.Fatalf("metadata not copied from context: %+v", e)
	}
	if e := sink.events[1]; e.RequestID != "explicit" {
		t.Fatalf("explicit request id overwritten: %+v", e)
	}
	for i, err := range sink.errs {
		if err != nil {
			t.Fatalf("event %d reached the sink with a cancelled context: %v", i, err)
		}
	}
}

func TestAuditDispatcherCloseWhileEmitting(t *testing.T) {
	for _, dropIfFull := range []bool{true, false} {
		sink := &ctxRecordingSink{}
		d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8, DropIfFull: dropIfFull}, sink)

		var wg sync.WaitGroup
		stop := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
						d.Emit(context.Background(), AuditEvent{ID: "x"})
					}
				}
			}()
		}

		time.Sleep(5 * time.Millisecond)
		d.Close()
		delivered := sink.count()

		time.Sleep(5 * time.Millisecond)
		close(stop)
		wg.Wait()

		if got := sink.count(); got != delivered {
			t.Fatalf("dropIfFull=%v: %d events reached the sink after Close returned", dropIfFull, got-delivered)
		}
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{ID: "a", EventType: AuditCredentialMissing, Path: "/dashboard"})
	sink.Emit(context.Background(), AuditEvent{ID: "b", EventType: AuditLoginBounce, Subject: "u1"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var e AuditEvent
	if err := json.Unmarshal([]byte(lines[1]), &e); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if e.ID != "b" || e.Subject != "u1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if strings.Contains(lines[0], "subject") {
		t.Fatalf("empty subject should be omitted: %s", lines[0])
	}
}
