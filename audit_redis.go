package routegate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultAuditStream    = "routegate:audit"
	defaultAuditStreamLen = 100000
	redisSinkTimeout      = 2 * time.Second
)

// RedisStreamSink appends audit events to a Redis stream so several gate
// instances can feed one operator pipeline. Each entry has a single "event"
// field holding the JSON-encoded AuditEvent. The stream is trimmed
// approximately to MaxLen entries.
type RedisStreamSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
	onErr  func(error)
}

// RedisStreamOption customizes a RedisStreamSink.
type RedisStreamOption func(*RedisStreamSink)

// WithStream sets the stream key.
func WithStream(key string) RedisStreamOption {
	return func(s *RedisStreamSink) {
		if key != "" {
			s.stream = key
		}
	}
}

// WithMaxLen caps the stream length. Zero disables trimming.
func WithMaxLen(n int64) RedisStreamOption {
	return func(s *RedisStreamSink) {
		if n >= 0 {
			s.maxLen = n
		}
	}
}

// WithErrorHandler is called when an XADD fails. Events are dropped either way.
func WithErrorHandler(fn func(error)) RedisStreamOption {
	return func(s *RedisStreamSink) {
		s.onErr = fn
	}
}

func NewRedisStreamSink(client redis.UniversalClient, opts ...RedisStreamOption) *RedisStreamSink {
	s := &RedisStreamSink{
		client: client,
		stream: defaultAuditStream,
		maxLen: defaultAuditStreamLen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStreamSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.client == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.fail(err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisSinkTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"event": string(data)},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		s.fail(err)
	}
}

// Stream returns the stream key events are written to.
func (s *RedisStreamSink) Stream() string {
	return s.stream
}

func (s *RedisStreamSink) fail(err error) {
	if s.onErr != nil {
		s.onErr(err)
	}
}
