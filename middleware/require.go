package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/routegate"
)

// RequireCredential verifies the credential regardless of route class and
// answers 401 on any failure. It suits JSON endpoints where a redirect would
// be meaningless. The cookie is preferred; an Authorization bearer token is
// accepted for non-browser clients.
func RequireCredential(g *routegate.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withRequestMeta(w, r)

			token := credentialCookie(r, g.CookieName())
			if token == "" {
				token, _ = bearerToken(r.Header.Get("Authorization"))
			}

			claims, err := g.Verify(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, subjectContextKey{}, claims.Subject())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
