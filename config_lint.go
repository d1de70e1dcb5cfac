package routegate

import (
	"fmt"
	"time"
)

// LintWarning is an operator-facing observation about a Config that is valid
// but probably not what a production deployment wants.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the ordered result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

const minSecretLength = 32

// Lint reports risky but accepted settings. It never fails.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	switch c.JWT.SigningMethod {
	case "ed25519":
		if len(c.JWT.PublicKey) == 0 {
			add("secret_missing", "no ed25519 public key configured; every protected route will redirect to %s", c.Routes.LoginPath)
		}
	default:
		if len(c.JWT.Secret) == 0 {
			add("secret_missing", "no signing secret configured; every protected route will redirect to %s", c.Routes.LoginPath)
		} else if len(c.JWT.Secret) < minSecretLength {
			add("secret_short", "signing secret is %d bytes; use at least %d", len(c.JWT.Secret), minSecretLength)
		}
	}

	if c.JWT.Leeway > 60*time.Second {
		add("leeway_large", "JWT leeway %s extends the life of expired credentials", c.JWT.Leeway)
	}

	if c.Cookie.Name != CanonicalCookieName {
		add("cookie_name_noncanonical", "cookie %q differs from the backend contract %q", c.Cookie.Name, CanonicalCookieName)
	}

	table := newRouteTable(c.Routes)
	if !table.matchesProtected(cleanPath(c.Routes.ProtectedHome)) {
		add("home_not_protected", "protected home %s is not under any protected prefix", c.Routes.ProtectedHome)
	}

	if c.ProductionMode && !c.Audit.Enabled {
		add("audit_disabled", "production mode without audit: verification failures are only logged")
	}
	if c.ProductionMode && !c.Metrics.Enabled {
		add("metrics_disabled", "production mode without metrics")
	}

	return ws
}
