package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/routegate"
	"github.com/google/uuid"
)

// RequestIDHeader is read from inbound requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

type subjectContextKey struct{}

// SubjectFromContext returns the verified credential subject stored by Guard
// or RequireCredential.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectContextKey{}).(string)
	return sub, ok && sub != ""
}

// Guard enforces g on every request. Redirects use 307 so the browser repeats
// the same method against the new location.
func Guard(g *routegate.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withRequestMeta(w, r)

			d := g.Evaluate(ctx, r.URL.Path, credentialCookie(r, g.CookieName()))
			if !d.Allowed() {
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
				return
			}

			if d.Subject != "" {
				ctx = context.WithValue(ctx, subjectContextKey{}, d.Subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func credentialCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// withRequestMeta attaches the request id and client address used in logs and
// audit events. A missing request id is generated.
func withRequestMeta(w http.ResponseWriter, r *http.Request) context.Context {
	id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	ctx := routegate.WithRequestID(r.Context(), id)
	return routegate.WithClientIP(ctx, clientIP(r))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
