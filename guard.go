package routegate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/routegate/internal/logging"
	"github.com/MrEthical07/routegate/jwt"
	"github.com/google/uuid"
)

const fallbackLoginPath = "/login"

// Guard decides, once per inbound navigation, whether the request proceeds or
// is redirected. It keeps no per-request state: the route table, verifier and
// key material are fixed at Build and concurrent calls never interact.
type Guard struct {
	config   Config
	routes   *RouteTable
	verifier *jwt.Manager
	// keyErr explains why verifier is nil.
	keyErr error

	audit   *auditDispatcher
	metrics *Metrics
	logger  logging.Logger
	now     func() time.Time

	misconfigReported atomic.Bool
}

// verification is the internal, detailed outcome of checking a credential.
// Only err crosses the package boundary; reason stays in logs and audit.
type verification struct {
	claims *jwt.Claims
	reason string
	err    error
}

// Evaluate classifies requestPath and returns Allow or a redirect. credential
// is the raw value of the credential cookie, empty when absent.
func (g *Guard) Evaluate(ctx context.Context, requestPath, credential string) Decision {
	if g == nil {
		return redirectTo(RouteProtected, fallbackLoginPath)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var d Decision
	switch class := g.routes.Classify(requestPath); class {
	case RouteProtected:
		d = g.evaluateProtected(ctx, requestPath, credential)
	case RouteLoginEntry:
		d = g.evaluateLogin(ctx, requestPath, credential)
	default:
		d = allow(RoutePublic, "")
	}

	if d.Allowed() {
		g.metrics.Inc(MetricDecisionAllow)
	} else {
		g.metrics.Inc(MetricDecisionRedirect)
	}
	g.logger.Debug(ctx, "route decision",
		"path", requestPath,
		"class", d.Class.String(),
		"decision", d.Kind.String(),
		"location", d.Location,
		"request_id", RequestIDFromContext(ctx),
	)
	return d
}

func (g *Guard) evaluateProtected(ctx context.Context, requestPath, credential string) Decision {
	login := g.config.Routes.LoginPath
	v := g.verify(credential)

	switch {
	case v.err == nil:
		return allow(RouteProtected, v.claims.Subject())

	case errors.Is(v.err, ErrMissingCredential):
		g.metrics.Inc(MetricCredentialMissing)
		g.emitAudit(ctx, AuditCredentialMissing, requestPath, RouteProtected, login, "", v.reason)

	case errors.Is(v.err, ErrConfiguration):
		g.reportMisconfiguration(ctx, requestPath)
		g.emitAudit(ctx, AuditConfigurationError, requestPath, RouteProtected, login, "", v.reason)

	default:
		if v.reason == "expired" {
			g.metrics.Inc(MetricCredentialExpired)
		} else {
			g.metrics.Inc(MetricCredentialInvalid)
		}
		g.logger.Warn(ctx, "credential rejected",
			"path", requestPath,
			"reason", v.reason,
			"request_id", RequestIDFromContext(ctx),
		)
		g.emitAudit(ctx, AuditCredentialRejected, requestPath, RouteProtected, login, "", v.reason)
	}

	return redirectTo(RouteProtected, login)
}

func (g *Guard) evaluateLogin(ctx context.Context, requestPath, credential string) Decision {
	if credential == "" {
		return allow(RouteLoginEntry, "")
	}

	v := g.verify(credential)
	switch {
	case v.err == nil:
		g.metrics.Inc(MetricLoginBounce)
		home := g.config.Routes.ProtectedHome
		g.emitAudit(ctx, AuditLoginBounce, requestPath, RouteLoginEntry, home, v.claims.Subject(), "")
		return redirectTo(RouteLoginEntry, home)
	case errors.Is(v.err, ErrConfiguration):
		g.reportMisconfiguration(ctx, requestPath)
	default:
		g.logger.Debug(ctx, "stale credential on login page",
			"reason", v.reason,
			"request_id", RequestIDFromContext(ctx),
		)
	}
	return allow(RouteLoginEntry, "")
}

// Verify checks credential and returns its claims. Errors are limited to
// ErrMissingCredential, ErrInvalidCredential and ErrConfiguration; the
// cryptographic detail is logged, never returned.
func (g *Guard) Verify(ctx context.Context, credential string) (*jwt.Claims, error) {
	if g == nil {
		return nil, ErrGuardNotReady
	}
	v := g.verify(credential)
	if v.err != nil && errors.Is(v.err, ErrInvalidCredential) {
		g.logger.Debug(ctx, "credential rejected", "reason", v.reason)
	}
	return v.claims, v.err
}

func (g *Guard) verify(credential string) verification {
	if credential == "" {
		return verification{reason: "missing", err: ErrMissingCredential}
	}
	if g.verifier == nil {
		g.metrics.Inc(MetricConfigurationError)
		return verification{reason: "no_key", err: ErrConfiguration}
	}

	start := time.Now()
	claims, err := g.verifier.Parse(credential)
	g.metrics.Observe(MetricVerifyLatency, time.Since(start))
	if err != nil {
		return verification{reason: jwt.Reason(err), err: ErrInvalidCredential}
	}

	g.metrics.Inc(MetricVerifySuccess)
	return verification{claims: claims}
}

// reportMisconfiguration logs the missing key at error level once, then at
// debug. MetricConfigurationError keeps the full count.
func (g *Guard) reportMisconfiguration(ctx context.Context, requestPath string) {
	if g.misconfigReported.CompareAndSwap(false, true) {
		g.logger.Error(ctx, "credential verification unavailable",
			"error", fmt.Errorf("%w: %v", ErrConfiguration, g.keyErr),
			"path", requestPath,
		)
		return
	}
	g.logger.Debug(ctx, "credential verification unavailable", "path", requestPath)
}

func (g *Guard) emitAudit(ctx context.Context, eventType, requestPath string, class RouteClass, location, subject, reason string) {
	if g.audit == nil {
		return
	}
	g.audit.Emit(ctx, AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: g.now().UTC(),
		EventType: eventType,
		Path:      requestPath,
		Class:     class.String(),
		Decision:  DecisionRedirect.String(),
		Location:  location,
		Subject:   subject,
		Reason:    reason,
	})
}

// CookieName is the credential cookie the guard reads.
func (g *Guard) CookieName() string {
	if g == nil {
		return CanonicalCookieName
	}
	return g.config.Cookie.Name
}

// LoginPath is where unauthenticated navigations are sent.
func (g *Guard) LoginPath() string {
	if g == nil {
		return fallbackLoginPath
	}
	return g.config.Routes.LoginPath
}

// Routes exposes the immutable route table.
func (g *Guard) Routes() *RouteTable {
	if g == nil {
		return nil
	}
	return g.routes
}

// Close drains pending audit events.
func (g *Guard) Close() {
	if g == nil {
		return
	}
	if g.audit != nil {
		g.audit.Close()
	}
}

// AuditDropped reports audit events lost to a full buffer.
func (g *Guard) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

// MetricsSnapshot returns the guard counters for exporters.
func (g *Guard) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}
