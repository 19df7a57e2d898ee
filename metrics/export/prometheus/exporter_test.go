package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/goAuthz"
)

type fakeSource struct {
	snapshot goAuthz.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goAuthz.MetricsSnapshot { return f.snapshot }
func (f fakeSource) DispatchDropped() uint64                  { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthz.MetricsSnapshot{
			Counters:   map[goAuthz.MetricID]uint64{},
			Histograms: map[goAuthz.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthz.MetricsSnapshot{
			Counters: map[goAuthz.MetricID]uint64{
				goAuthz.MetricAuthorizeOK: 7,
			},
			Histograms: map[goAuthz.MetricID][]uint64{
				goAuthz.MetricAuthorizeLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "goauthz_authorize_ok_total 7") {
		t.Fatalf("expected authorize_ok counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthz_authorize_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthz_authorize_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthz_dispatch_dropped_total 2") {
		t.Fatalf("expected dispatch dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthz.MetricsSnapshot{
			Counters:   map[goAuthz.MetricID]uint64{goAuthz.MetricAuthorizeOK: 1},
			Histograms: map[goAuthz.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthz.MetricsSnapshot{
			Counters: map[goAuthz.MetricID]uint64{
				goAuthz.MetricAuthorizeOK:      1000,
				goAuthz.MetricAuthorizeInvalid: 40,
				goAuthz.MetricSecretMismatch:   25,
				goAuthz.MetricRefreshSuccess:   800,
				goAuthz.MetricRefreshFailure:   10,
				goAuthz.MetricTokenIssued:      800,
				goAuthz.MetricLogout:           20,
				goAuthz.MetricRateLimitHit:     3,
			},
			Histograms: map[goAuthz.MetricID][]uint64{
				goAuthz.MetricAuthorizeLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
