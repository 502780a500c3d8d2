// Package internaldefs holds the metric naming shared by the Prometheus and
// OpenTelemetry exporters so both expose identical series.
package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLogIn, Name: "gosession_login_total", Help: "Sessions created by login."},
	{ID: goSession.MetricResolveHit, Name: "gosession_resolve_hit_total", Help: "Resolves that found a valid session."},
	{ID: goSession.MetricResolveMiss, Name: "gosession_resolve_miss_total", Help: "Resolves with an unknown or disposed token."},
	{ID: goSession.MetricResolveAnonymous, Name: "gosession_resolve_anonymous_total", Help: "Requests carrying no token."},
	{ID: goSession.MetricAccessRefresh, Name: "gosession_access_refresh_total", Help: "Persisted access-tracking refreshes."},
	{ID: goSession.MetricLogOut, Name: "gosession_logout_total", Help: "Self logout operations."},
	{ID: goSession.MetricRevoke, Name: "gosession_revoke_total", Help: "Single-token revocations."},
	{ID: goSession.MetricRevokeAll, Name: "gosession_revoke_all_total", Help: "Category-wide bulk invalidations."},
	{ID: goSession.MetricDeviceUpdate, Name: "gosession_device_update_total", Help: "Device-id binding updates."},
	{ID: goSession.MetricEngineFailure, Name: "gosession_engine_failure_total", Help: "Operations that surfaced a storage engine error."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricResolveLatency, Name: "gosession_resolve_latency_seconds", Help: "Resolve latency histogram."},
}

// HistogramBounds are the bucket upper bounds in Prometheus label form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with OTel-safe instrument
// name suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// both exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
