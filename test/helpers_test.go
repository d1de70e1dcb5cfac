package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/routegate"
	"github.com/MrEthical07/routegate/jwt"
)

var sharedSecret = []byte("integration-secret-integration-00")

func newGuard(t *testing.T) *routegate.Guard {
	t.Helper()
	cfg := routegate.DefaultConfig()
	cfg.JWT.Secret = sharedSecret
	g, err := routegate.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

// newIdentityBackend plays the REST backend: it issues a real signed
// credential in the accesstoken cookie, exactly what the guard verifies.
func newIdentityBackend(t *testing.T) *httptest.Server {
	t.Helper()
	signer, err := jwt.NewManager(jwt.Config{Secret: sharedSecret})
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "hunter2" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
			return
		}
		tok, err := signer.Issue(body.Email, time.Hour)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: routegate.CanonicalCookieName, Value: tok, Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]string{"email": body.Email}})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(routegate.CanonicalCookieName)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		claims, err := signer.Parse(c.Value)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]string{"email": claims.Subject()}})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: routegate.CanonicalCookieName, Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
