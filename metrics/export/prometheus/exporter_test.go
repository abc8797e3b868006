package prometheus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goIdentity "github.com/MrEthical07/goIdentity"
)

type fakeSource struct {
	snapshot goIdentity.MetricsSnapshot
	dropped  uint64
	stats    goIdentity.StoreStats
	statsErr error
}

func (f fakeSource) MetricsSnapshot() goIdentity.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }
func (f fakeSource) StoreStats(context.Context) (goIdentity.StoreStats, error) {
	return f.stats, f.statsErr
}

func TestRenderStoreGaugesWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters:   map[goIdentity.MetricID]uint64{},
			Histograms: map[goIdentity.MetricID][]uint64{},
		},
		stats: goIdentity.StoreStats{Users: 2, Roles: 2, Tokens: 5},
	})

	out := exp.Render(context.Background())
	if strings.Contains(out, "goidentity_login_success_total") || strings.Contains(out, "goidentity_resolve_latency_seconds") {
		t.Fatalf("engine counters must be left out while metrics are disabled:\n%s", out)
	}
	for _, want := range []string{
		"# TYPE goidentity_users gauge",
		"goidentity_users 2",
		"goidentity_roles 2",
		"goidentity_tokens_stored 5",
		"goidentity_store_up 1",
		"goidentity_audit_dropped_total 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderStoreDown(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{},
		statsErr: errors.New("redis: connection refused"),
	})

	out := exp.Render(context.Background())
	if !strings.Contains(out, "goidentity_store_up 0") {
		t.Fatalf("expected store_up 0, got:\n%s", out)
	}
	if strings.Contains(out, "goidentity_users") || strings.Contains(out, "goidentity_tokens_stored") {
		t.Fatalf("size gauges must be omitted when the store cannot be counted:\n%s", out)
	}
}

func TestRenderNilExporter(t *testing.T) {
	var exp *PrometheusExporter
	if got := exp.Render(context.Background()); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricLoginSuccess: 7,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricResolveLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render(context.Background())
	for _, want := range []string{
		"goidentity_login_success_total 7",
		"goidentity_login_failure_total 0",
		"goidentity_resolve_latency_seconds_bucket{le=\"0.001\"} 1",
		"goidentity_resolve_latency_seconds_bucket{le=\"+Inf\"} 36",
		"goidentity_resolve_latency_seconds_count 36",
		"goidentity_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if out != exp.Render(context.Background()) {
		t.Fatal("render output must be deterministic")
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters:   map[goIdentity.MetricID]uint64{goIdentity.MetricLoginSuccess: 1},
			Histograms: map[goIdentity.MetricID][]uint64{},
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

func TestRenderFromEngine(t *testing.T) {
	cfg := goIdentity.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true

	engine, err := goIdentity.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Login(context.Background(), "demo", "demo123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	out := NewPrometheusExporter(engine).Render(context.Background())
	for _, want := range []string{
		"goidentity_login_success_total 1",
		"goidentity_token_issued_total 1",
		"goidentity_users 2",
		"goidentity_roles 2",
		"goidentity_tokens_stored 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricLoginSuccess:   1000,
				goIdentity.MetricLoginFailure:   40,
				goIdentity.MetricResolveSuccess: 8000,
				goIdentity.MetricResolveFailure: 10,
				goIdentity.MetricTokenIssued:    1000,
				goIdentity.MetricTokensSwept:    20,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricResolveLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render(ctx)
	}
}
