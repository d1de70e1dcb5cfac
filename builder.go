package routegate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/routegate/internal/logging"
	"github.com/MrEthical07/routegate/jwt"
)

// Builder assembles a Guard. Configure it during initialization, call Build
// once, and discard it.
type Builder struct {
	config    Config
	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the operator log. Nil discards.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit destination. Audit stays off unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the clock used for credential expiry and audit
// timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verification latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Guard. A missing
// signing key is not a Build error; see Guard.Evaluate.
func (b *Builder) Build() (*Guard, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := logging.NewSlogLogger(b.logger).With("component", "routegate")

	g := &Guard{
		config:  cfg,
		routes:  newRouteTable(cfg.Routes),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     now,
	}

	verifier, err := newVerifier(cfg.JWT, now)
	switch {
	case errors.Is(err, errNoKeyMaterial):
		g.keyErr = err
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	default:
		g.verifier = verifier
	}

	ctx := context.Background()
	for _, w := range cfg.Lint() {
		logger.Warn(ctx, "config lint", "code", w.Code, "message", w.Message)
	}

	g.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	b.built = true

	return g, nil
}

var errNoKeyMaterial = errors.New("no signing key configured")

func newVerifier(cfg JWTConfig, now func() time.Time) (*jwt.Manager, error) {
	method := jwt.SigningMethod(cfg.SigningMethod)
	if method == "" {
		method = jwt.MethodHS256
	}

	switch method {
	case jwt.MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, errNoKeyMaterial
		}
	case jwt.MethodEd25519:
		if len(cfg.PublicKey) == 0 {
			return nil, errNoKeyMaterial
		}
	}

	return jwt.NewManager(jwt.Config{
		SigningMethod: method,
		Secret:        cloneBytes(cfg.Secret),
		PublicKey:     cloneBytes(cfg.PublicKey),
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		Leeway:        cfg.Leeway,
		RequireIAT:    cfg.RequireIAT,
		Now:           now,
	})
}
