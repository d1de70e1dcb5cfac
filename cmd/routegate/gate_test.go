package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/routegate"
	"github.com/MrEthical07/routegate/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "page "+r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T) string {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{Secret: []byte(testSecret)})
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	tok, err := m.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func do(t *testing.T, h http.Handler, path, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: routegate.CanonicalCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGateProxiesAndRedirects(t *testing.T) {
	t.Setenv(routegate.EnvSecret, testSecret)
	upstream := newUpstream(t)

	g, err := newGate(options{upstream: upstream.URL, metricsPath: "/metrics"}, discardLogger())
	if err != nil {
		t.Fatalf("newGate: %v", err)
	}
	defer g.Close()
	h := g.Handler()

	if rec := do(t, h, "/dashboard", ""); rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := do(t, h, "/dashboard", token(t)); rec.Code != http.StatusOK || rec.Body.String() != "page /dashboard" {
		t.Fatalf("expected proxied page, got %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, "/login", token(t)); rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected login bounce, got %d", rec.Code)
	}
	if rec := do(t, h, "/", ""); rec.Body.String() != "page /" {
		t.Fatalf("expected public page, got %q", rec.Body.String())
	}

	rec := do(t, h, "/metrics", "")
	if !strings.Contains(rec.Body.String(), "routegate_decision_redirect_total 2") {
		t.Fatalf("expected metrics exposition, got:\n%s", rec.Body.String())
	}
}

func TestGateLoadsConfigFile(t *testing.T) {
	t.Setenv(routegate.EnvSecret, testSecret)
	upstream := newUpstream(t)

	p := filepath.Join(t.TempDir(), "routegate.yaml")
	body := "routes:\n  protected_prefixes: [/admin]\n  login_path: /signin\n  protected_home: /admin\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	g, err := newGate(options{upstream: upstream.URL, configPath: p}, discardLogger())
	if err != nil {
		t.Fatalf("newGate: %v", err)
	}
	defer g.Close()

	if rec := do(t, g.Handler(), "/admin/users", ""); rec.Header().Get("Location") != "/signin" {
		t.Fatalf("expected redirect to /signin, got %d", rec.Code)
	}
	if rec := do(t, g.Handler(), "/dashboard", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected /dashboard to be public with this config, got %d", rec.Code)
	}
}

func TestGateAuditToRedis(t *testing.T) {
	t.Setenv(routegate.EnvSecret, testSecret)
	upstream := newUpstream(t)
	mr := miniredis.RunT(t)

	g, err := newGate(options{upstream: upstream.URL, auditRedis: mr.Addr(), auditStream: "gate:audit"}, discardLogger())
	if err != nil {
		t.Fatalf("newGate: %v", err)
	}

	do(t, g.Handler(), "/profile", "garbage")
	g.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	n, err := rdb.XLen(context.Background(), "gate:audit").Result()
	if err != nil {
		t.Fatalf("xlen: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one audit entry, got %d", n)
	}
}

func TestNewGateRejectsBadOptions(t *testing.T) {
	if _, err := newGate(options{}, discardLogger()); err == nil {
		t.Fatalf("expected missing upstream to fail")
	}
	if _, err := newGate(options{upstream: "not a url"}, discardLogger()); err == nil {
		t.Fatalf("expected invalid upstream to fail")
	}
	if _, err := newGate(options{upstream: "http://x", configPath: "/nonexistent.yaml"}, discardLogger()); err == nil {
		t.Fatalf("expected missing config file to fail")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug", "text"); err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if _, err := newLogger("loud", "json"); err == nil {
		t.Fatalf("expected invalid level to fail")
	}
	if _, err := newLogger("info", "xml"); err == nil {
		t.Fatalf("expected invalid format to fail")
	}
}
