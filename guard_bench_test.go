package routegate

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/routegate/jwt"
)

func newBenchmarkGuard(b *testing.B) (*Guard, string) {
	b.Helper()
	cfg := DefaultConfig()
	cfg.JWT.Secret = testSecret

	g, err := New().WithConfig(cfg).WithLatencyHistograms(true).Build()
	if err != nil {
		b.Fatalf("build guard: %v", err)
	}
	b.Cleanup(g.Close)

	m, err := jwt.NewManager(jwt.Config{Secret: testSecret})
	if err != nil {
		b.Fatalf("signer: %v", err)
	}
	tok, err := m.Issue("bench-user", time.Hour)
	if err != nil {
		b.Fatalf("issue: %v", err)
	}
	return g, tok
}

func BenchmarkEvaluateProtected(b *testing.B) {
	g, tok := newBenchmarkGuard(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if d := g.Evaluate(ctx, "/dashboard/posts", tok); !d.Allowed() {
			b.Fatalf("unexpected redirect: %+v", d)
		}
	}
}

func BenchmarkEvaluateMissingCredential(b *testing.B) {
	g, _ := newBenchmarkGuard(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if d := g.Evaluate(ctx, "/dashboard", ""); d.Allowed() {
			b.Fatalf("unexpected allow")
		}
	}
}

func BenchmarkEvaluatePublic(b *testing.B) {
	g, tok := newBenchmarkGuard(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if d := g.Evaluate(ctx, "/about", tok); !d.Allowed() {
			b.Fatalf("unexpected redirect")
		}
	}
}

func BenchmarkEvaluateParallel(b *testing.B) {
	g, tok := newBenchmarkGuard(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			g.Evaluate(ctx, "/profile", tok)
		}
	})
}
