package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/MrEthical07/routegate"
	"github.com/MrEthical07/routegate/metrics/export/prometheus"
	"github.com/MrEthical07/routegate/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type options struct {
	configPath  string
	listen      string
	upstream    string
	metricsPath string
	auditRedis  string
	auditStream string
	logLevel    string
	logFormat   string
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "YAML config file (defaults apply when empty)")
	fs.StringVar(&o.listen, "listen", ":8080", "address to serve on")
	fs.StringVar(&o.upstream, "upstream", "", "front end origin to proxy allowed requests to")
	fs.StringVar(&o.metricsPath, "metrics-path", "/metrics", "Prometheus endpoint path; empty disables it")
	fs.StringVar(&o.auditRedis, "audit-redis", "", "Redis address for the audit stream; enables audit")
	fs.StringVar(&o.auditStream, "audit-stream", "routegate:audit", "Redis stream key for audit events")
	fs.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", "json", "json or text")
}

// gate is the assembled server: guard, proxy and optional audit transport.
type gate struct {
	guard   *routegate.Guard
	handler http.Handler
	closers []io.Closer
}

func newGate(opts options, logger *slog.Logger) (*gate, error) {
	if opts.upstream == "" {
		return nil, errors.New("--upstream is required")
	}
	target, err := url.Parse(opts.upstream)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid --upstream %q", opts.upstream)
	}

	cfg := routegate.DefaultConfig()
	if opts.configPath != "" {
		if cfg, err = routegate.LoadConfigFile(opts.configPath); err != nil {
			return nil, err
		}
	}
	if err := routegate.ApplyEnv(&cfg, nil); err != nil {
		return nil, err
	}

	g := &gate{}
	var sink routegate.AuditSink
	switch {
	case opts.auditRedis != "":
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{opts.auditRedis}})
		g.closers = append(g.closers, client)
		cfg.Audit.Enabled = true
		sink = routegate.NewRedisStreamSink(client,
			routegate.WithStream(opts.auditStream),
			routegate.WithErrorHandler(func(err error) {
				logger.Warn("audit stream write failed", "error", err)
			}),
		)
	case cfg.Audit.Enabled:
		sink = routegate.NewJSONWriterSink(os.Stdout)
	}

	g.guard, err = routegate.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithAuditSink(sink).
		Build()
	if err != nil {
		g.Close()
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream request failed", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusBadGateway)
	}

	mux := http.NewServeMux()
	if opts.metricsPath != "" {
		mux.Handle("GET "+opts.metricsPath, prometheus.NewPrometheusExporter(g.guard).Handler())
	}
	mux.Handle("/", middleware.Guard(g.guard)(proxy))
	g.handler = mux

	return g, nil
}

func (g *gate) Handler() http.Handler {
	return g.handler
}

// Close drains audit events before closing their transport.
func (g *gate) Close() {
	g.guard.Close()
	for _, c := range g.closers {
		_ = c.Close()
	}
}
