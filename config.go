package routegate

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// CanonicalCookieName is the one cookie name the guard reads a credential from.
const CanonicalCookieName = "accesstoken"

// Config holds everything a Guard needs. It is loaded once at process start
// and treated as immutable afterwards.
type Config struct {
	JWT            JWTConfig     `yaml:"jwt"`
	Routes         RoutesConfig  `yaml:"routes"`
	Cookie         CookieConfig  `yaml:"cookie"`
	Audit          AuditConfig   `yaml:"audit"`
	Metrics        MetricsConfig `yaml:"metrics"`
	ProductionMode bool          `yaml:"production_mode"`
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig describes how credentials are verified. An empty Secret is not a
// validation error: the guard still starts, fails closed on protected routes
// and reports ErrConfiguration.
type JWTConfig struct {
	SigningMethod string        `yaml:"signing_method"` // "hs256" (default) or "ed25519"
	Secret        []byte        `yaml:"-"`
	PublicKey     []byte        `yaml:"-"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	Leeway        time.Duration `yaml:"leeway"`
	RequireIAT    bool          `yaml:"require_iat"`
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig is the route table as data. Adding a protected area means
// appending a prefix here.
type RoutesConfig struct {
	ProtectedPrefixes []string `yaml:"protected_prefixes"`
	LoginPath         string   `yaml:"login_path"`
	ProtectedHome     string   `yaml:"protected_home"`
}

// CookieConfig names the credential carrier. The same name is used for every
// read the guard makes.
type CookieConfig struct {
	Name string `yaml:"name"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the dashboard's route table with metrics on and
// audit off. The secret is left empty and must come from the environment.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "hs256",
		},
		Routes: RoutesConfig{
			ProtectedPrefixes: []string{"/dashboard", "/profile"},
			LoginPath:         "/login",
			ProtectedHome:     "/dashboard",
		},
		Cookie: CookieConfig{
			Name: CanonicalCookieName,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Routes.ProtectedPrefixes = append([]string(nil), cfg.Routes.ProtectedPrefixes...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the guard cannot run with. A missing
// secret is deliberately not rejected here.
func (c *Config) Validate() error {
	switch c.JWT.SigningMethod {
	case "hs256", "ed25519":
	default:
		return fmt.Errorf("unsupported JWT signing method %q", c.JWT.SigningMethod)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	if len(c.Routes.ProtectedPrefixes) == 0 {
		return errors.New("Routes ProtectedPrefixes must not be empty")
	}
	for _, p := range c.Routes.ProtectedPrefixes {
		if !isAbsPath(p) {
			return fmt.Errorf("protected prefix %q must be an absolute path", p)
		}
		if cleanPath(p) == "/" {
			return errors.New("protected prefix \"/\" would protect the login page")
		}
	}
	if !isAbsPath(c.Routes.LoginPath) {
		return errors.New("Routes LoginPath must be an absolute path")
	}
	if !isAbsPath(c.Routes.ProtectedHome) {
		return errors.New("Routes ProtectedHome must be an absolute path")
	}

	table := newRouteTable(c.Routes)
	if table.matchesProtected(cleanPath(c.Routes.LoginPath)) {
		return errors.New("Routes LoginPath must not be under a protected prefix")
	}

	if name := c.Cookie.Name; name == "" || strings.ContainsAny(name, " \t;,=") {
		return fmt.Errorf("Cookie Name %q is not a valid cookie name", name)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func isAbsPath(p string) bool {
	return strings.HasPrefix(strings.TrimSpace(p), "/")
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
