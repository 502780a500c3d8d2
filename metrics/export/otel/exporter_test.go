package otel

import (
	"context"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                       { return f.dropped }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	out := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			}
		}
	}
	return out
}

func TestExporterRejectsNilInputs(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("nil meter = %v, want ErrNilMeter", err)
	}
	if _, err := NewExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("nil source = %v, want ErrNilSource", err)
	}
}

func TestExporterObservesManagerCounters(t *testing.T) {
	mgr, err := goSession.New().WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	ctx := context.Background()
	token, err := mgr.Session().LogIn(ctx, "user-1")
	if err != nil {
		t.Fatalf("LogIn: %v", err)
	}
	if err := mgr.Session().Resolve(ctx, token); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	exporter, err := NewExporter(meter, mgr)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	t.Cleanup(func() { _ = exporter.Close() })

	values := collect(t, reader)
	if values["gosession_login_total"] != 1 {
		t.Fatalf("login counter = %d, want 1", values["gosession_login_total"])
	}
	if values["gosession_resolve_hit_total"] != 1 {
		t.Fatalf("hit counter = %d, want 1", values["gosession_resolve_hit_total"])
	}
	if values["gosession_resolve_miss_total"] != 0 {
		t.Fatalf("miss counter = %d, want 0", values["gosession_resolve_miss_total"])
	}
}

func TestExporterObservesHistogramBuckets(t *testing.T) {
	src := &fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricResolveLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
		},
		dropped: 3,
	}

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	exporter, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource: %v", err)
	}
	t.Cleanup(func() { _ = exporter.Close() })

	values := collect(t, reader)
	if values["gosession_resolve_latency_seconds_bucket_le_0_005"] != 2 {
		t.Fatalf("first bucket = %d, want 2", values["gosession_resolve_latency_seconds_bucket_le_0_005"])
	}
	if values["gosession_resolve_latency_seconds_bucket_le_inf"] != 4 {
		t.Fatalf("+Inf bucket = %d, want cumulative 4", values["gosession_resolve_latency_seconds_bucket_le_inf"])
	}
	if values["gosession_resolve_latency_seconds_count"] != 4 {
		t.Fatalf("count = %d, want 4", values["gosession_resolve_latency_seconds_count"])
	}
	if values["gosession_audit_dropped_total"] != 3 {
		t.Fatalf("dropped = %d, want 3", values["gosession_audit_dropped_total"])
	}
}

func TestExporterCloseStopsObservation(t *testing.T) {
	src := &fakeSource{snapshot: goSession.MetricsSnapshot{
		Counters:   map[goSession.MetricID]uint64{goSession.MetricLogIn: 7},
		Histograms: map[goSession.MetricID][]uint64{},
	}}

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	exporter, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource: %v", err)
	}

	values := collect(t, reader)
	if values["gosession_login_total"] != 7 {
		t.Fatalf("login counter = %d, want 7", values["gosession_login_total"])
	}

	if err := exporter.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	src.snapshot.Counters[goSession.MetricLogIn] = 99
	values = collect(t, reader)
	if values["gosession_login_total"] == 99 {
		t.Fatal("callback still observing after Close")
	}
}
