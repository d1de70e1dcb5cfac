package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultUserAgent = "routegate-session/1.0"
	maxResponseBody  = 1 << 20
)

// Config wires the HTTP backend.
type Config struct {
	// BaseURL is the identity service origin, e.g. https://api.example.com.
	BaseURL string
	// HTTPClient is copied; nil means http.DefaultClient's settings.
	HTTPClient *http.Client
	// Jar overrides the cookie jar. When both Jar and HTTPClient.Jar are
	// nil a publicsuffix-aware jar is created.
	Jar       http.CookieJar
	UserAgent string
}

// HTTPBackend implements Backend over the identity REST API. The credential
// cookie travels in the client's jar: login stores it, me and logout send it.
type HTTPBackend struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

var _ Backend = (*HTTPBackend)(nil)

// NewHTTPBackend validates cfg and returns a backend.
func NewHTTPBackend(cfg Config) (*HTTPBackend, error) {
	base, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	if cfg.HTTPClient != nil {
		*client = *cfg.HTTPClient
	}
	switch {
	case cfg.Jar != nil:
		client.Jar = cfg.Jar
	case client.Jar == nil:
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("session: cookie jar: %w", err)
		}
		client.Jar = jar
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &HTTPBackend{
		baseURL:    base,
		httpClient: client,
		userAgent:  ua,
	}, nil
}

func normalizeBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("session: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("session: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("session: base URL scheme must be http or https")
	}
	if u.Host == "" {
		return nil, errors.New("session: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Jar returns the cookie jar holding the credential.
func (b *HTTPBackend) Jar() http.CookieJar {
	return b.httpClient.Jar
}

func (b *HTTPBackend) Me(ctx context.Context) (AuthResponse, error) {
	return b.call(ctx, "me", http.MethodGet, routeMe, nil)
}

func (b *HTTPBackend) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	return b.call(ctx, "login", http.MethodPost, routeLogin, creds)
}

func (b *HTTPBackend) Register(ctx context.Context, reg Registration) (AuthResponse, error) {
	return b.call(ctx, "register", http.MethodPost, routeRegister, reg)
}

// Logout asks the backend to clear the credential cookie. Any 2xx counts as
// success; the body is not required.
func (b *HTTPBackend) Logout(ctx context.Context) error {
	req, err := b.newJSONRequest(ctx, http.MethodPost, routeLogout, nil)
	if err != nil {
		return &Error{Kind: KindNetworkFailure, Op: "logout", Err: err}
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetworkFailure, Op: "logout", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode >= 300 {
		return statusError("logout", resp.StatusCode, "")
	}
	return nil
}

func (b *HTTPBackend) call(ctx context.Context, op, method, path string, payload any) (AuthResponse, error) {
	req, err := b.newJSONRequest(ctx, method, path, payload)
	if err != nil {
		return AuthResponse{}, &Error{Kind: KindNetworkFailure, Op: op, Err: err}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return AuthResponse{}, &Error{Kind: KindNetworkFailure, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return AuthResponse{}, &Error{Kind: KindNetworkFailure, Op: op, Status: resp.StatusCode, Err: err}
	}

	var out AuthResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode >= 300 {
		return AuthResponse{}, statusError(op, resp.StatusCode, out.Message)
	}
	if decodeErr != nil {
		return AuthResponse{}, &Error{Kind: KindNetworkFailure, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !out.Success {
		kind := KindBackendRejected
		if op == "me" {
			kind = KindUnauthenticated
		}
		return out, &Error{Kind: kind, Op: op, Status: resp.StatusCode, Message: out.Message}
	}
	return out, nil
}

// statusError classifies a non-2xx answer. 401 on the identity endpoint is
// simply "not logged in"; other 4xx are rejections; 5xx and anything odd are
// treated as the backend being unavailable.
func statusError(op string, status int, message string) *Error {
	e := &Error{Op: op, Status: status, Message: message}
	switch {
	case op == "me" && (status == http.StatusUnauthorized || status == http.StatusForbidden):
		e.Kind = KindUnauthenticated
	case status >= 400 && status < 500:
		e.Kind = KindBackendRejected
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
	default:
		e.Kind = KindNetworkFailure
	}
	return e
}

func (b *HTTPBackend) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.buildURL(path), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", b.userAgent)
	injectTraceparent(ctx, req)
	return req, nil
}

func (b *HTTPBackend) buildURL(path string) string {
	u := *b.baseURL
	u.Path = u.Path + path
	return u.String()
}

func injectTraceparent(ctx context.Context, req *http.Request) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return
	}
	req.Header.Set("Traceparent", fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), sc.TraceFlags()))
}
