package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/routegate"
	"github.com/MrEthical07/routegate/jwt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newGuard(t *testing.T, secret []byte) *routegate.Guard {
	t.Helper()
	cfg := routegate.DefaultConfig()
	cfg.JWT.Secret = secret
	g, err := routegate.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func issue(t *testing.T, subject string) string {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	tok, err := m.Issue(subject, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func subjectEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, _ := SubjectFromContext(r.Context())
		_, _ = w.Write([]byte("ok:" + sub))
	})
}

func serve(h http.Handler, path, cookie string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: routegate.CanonicalCookieName, Value: cookie})
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardRedirectsUnauthenticated(t *testing.T) {
	h := Guard(newGuard(t, testSecret))(subjectEcho())

	rec := serve(h, "/dashboard/posts", "", nil)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected Location /login, got %q", loc)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("redirects must not be cached")
	}
}

func TestGuardAllowsAuthenticated(t *testing.T) {
	h := Guard(newGuard(t, testSecret))(subjectEcho())

	rec := serve(h, "/dashboard", issue(t, "user-1"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "ok:user-1" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestGuardBouncesLoginWhenAuthenticated(t *testing.T) {
	h := Guard(newGuard(t, testSecret))(subjectEcho())

	rec := serve(h, "/login", issue(t, "user-1"), nil)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = serve(h, "/login", "stale", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login page to render with a stale cookie, got %d", rec.Code)
	}
}

func TestGuardIgnoresOtherCookies(t *testing.T) {
	h := Guard(newGuard(t, testSecret))(subjectEcho())

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: issue(t, "user-1")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("only the canonical cookie may carry the credential, got %d", rec.Code)
	}
}

func TestGuardWithoutSecretRedirects(t *testing.T) {
	h := Guard(newGuard(t, nil))(subjectEcho())

	rec := serve(h, "/dashboard", issue(t, "user-1"), nil)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected fail-closed redirect, got %d", rec.Code)
	}
}

func TestGuardPublicPassesThrough(t *testing.T) {
	h := Guard(newGuard(t, testSecret))(subjectEcho())

	rec := serve(h, "/about", "garbage", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok:" {
		t.Fatalf("expected public pass-through, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardRequestID(t *testing.T) {
	h := Guard(newGuard(t, testSecret))(subjectEcho())

	rec := serve(h, "/about", "", map[string]string{RequestIDHeader: "abc-123"})
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	rec = serve(h, "/about", "", nil)
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestNilGuardFailsClosed(t *testing.T) {
	h := Guard(nil)(subjectEcho())
	if rec := serve(h, "/about", "", nil); rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect from nil guard, got %d", rec.Code)
	}

	h = RequireCredential(nil)(subjectEcho())
	if rec := serve(h, "/api", issue(t, "u"), nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 from nil guard, got %d", rec.Code)
	}
}

func TestRequireCredential(t *testing.T) {
	h := RequireCredential(newGuard(t, testSecret))(subjectEcho())

	if rec := serve(h, "/api/posts", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credential, got %d", rec.Code)
	}
	if rec := serve(h, "/api/posts", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage, got %d", rec.Code)
	}

	rec := serve(h, "/api/posts", issue(t, "user-2"), nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok:user-2" {
		t.Fatalf("expected cookie auth, got %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(h, "/api/posts", "", map[string]string{"Authorization": "Bearer " + issue(t, "user-3")})
	if rec.Code != http.StatusOK || rec.Body.String() != "ok:user-3" {
		t.Fatalf("expected bearer auth, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	if _, ok := bearerToken("Basic abc"); ok {
		t.Fatalf("expected non-bearer to be rejected")
	}
	if _, ok := bearerToken("Bearer "); ok {
		t.Fatalf("expected empty bearer to be rejected")
	}
	if tok, ok := bearerToken("Bearer x.y.z"); !ok || tok != "x.y.z" {
		t.Fatalf("unexpected parse %q %v", tok, ok)
	}
}
