package goAuthz

import (
	"context"
	"testing"
)

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricAuthorizeOK)
		}
	})
}

func BenchmarkAuthorize(b *testing.B) {
	f := newEngineTest(b, func(c *Config) {
		c.Metrics.EnableLatencyHistograms = true
	})
	pkg := f.login(b, TokenRequest{})
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := f.engine.Authorize(ctx, pkg.AccessToken, "f-view")
		if err != nil || !res.OK() {
			b.Fatalf("authorize: status=%s err=%v", res.Status, err)
		}
	}
}

func BenchmarkRefreshBeforeExpiry(b *testing.B) {
	f := newEngineTest(b, func(c *Config) {
		c.RateLimit.RefreshMaxCalls = b.N + 1
	})
	pkg := f.login(b, TokenRequest{})
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.engine.Refresh(ctx, pkg.RefreshToken); err != nil {
			b.Fatalf("refresh: %v", err)
		}
	}
}
