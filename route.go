package routegate

import "strings"

// RouteClass is the guard's view of a request path.
type RouteClass uint8

const (
	// RoutePublic paths are always allowed and never read the credential.
	RoutePublic RouteClass = iota
	// RouteProtected paths require a valid credential.
	RouteProtected
	// RouteLoginEntry is the sign-in page; authenticated users are sent away from it.
	RouteLoginEntry
)

func (c RouteClass) String() string {
	switch c {
	case RouteProtected:
		return "protected"
	case RouteLoginEntry:
		return "login"
	default:
		return "public"
	}
}

// RouteTable classifies paths against a fixed set of protected prefixes and a
// single login path. It is immutable after construction.
type RouteTable struct {
	protected []string
	login     string
}

// NewRouteTable builds a table from configuration data.
func NewRouteTable(cfg RoutesConfig) *RouteTable {
	return newRouteTable(cfg)
}

func newRouteTable(cfg RoutesConfig) *RouteTable {
	t := &RouteTable{login: cleanPath(cfg.LoginPath)}
	for _, p := range cfg.ProtectedPrefixes {
		if strings.TrimSpace(p) == "" {
			continue
		}
		t.protected = append(t.protected, cleanPath(p))
	}
	return t
}

// Classify maps a request path to its RouteClass. The path is cleaned first
// so "/dashboard/../dashboard" and "//dashboard" are treated as "/dashboard".
// Protected is checked before the login path.
func (t *RouteTable) Classify(requestPath string) RouteClass {
	p := cleanPath(requestPath)
	if t.matchesProtected(p) {
		return RouteProtected
	}
	if p == t.login {
		return RouteLoginEntry
	}
	return RoutePublic
}

// matchesProtected reports whether p equals a prefix or lies below it on a
// segment boundary: "/dashboard" covers "/dashboard/posts" but not "/dashboards".
func (t *RouteTable) matchesProtected(p string) bool {
	for _, prefix := range t.protected {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
