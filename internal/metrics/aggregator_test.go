package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/torosent/feedbench/internal/metrics"
)

func observe(a *metrics.Aggregator, latencyNs int64, byteLen int) {
	a.Observe(metrics.Sample{LatencyNs: latencyNs, Valid: true}, byteLen)
}

func TestFirstObservationSeedsBounds(t *testing.T) {
	a := metrics.NewAggregator()
	observe(a, 500, 32)

	snap := a.Snapshot()
	if snap.Packets != 1 {
		t.Errorf("expected packets 1, got %d", snap.Packets)
	}
	if snap.Bytes != 32 {
		t.Errorf("expected bytes 32, got %d", snap.Bytes)
	}
	if snap.MinLatencyNs != 500 || snap.MaxLatencyNs != 500 || snap.AvgLatencyNs != 500 {
		t.Errorf("expected min=max=avg=500, got min=%d max=%d avg=%d",
			snap.MinLatencyNs, snap.MaxLatencyNs, snap.AvgLatencyNs)
	}
}

func TestRunningBoundsAndTotals(t *testing.T) {
	a := metrics.NewAggregator()
	for _, l := range []int64{1000, 2000, 500, 1500} {
		observe(a, l, 32)
	}

	snap := a.Snapshot()
	if snap.Packets != 4 {
		t.Errorf("expected packets 4, got %d", snap.Packets)
	}
	if snap.Bytes != 128 {
		t.Errorf("expected bytes 128, got %d", snap.Bytes)
	}
	if snap.TotalLatencyNs != 5000 {
		t.Errorf("expected total 5000, got %d", snap.TotalLatencyNs)
	}
	if snap.MinLatencyNs != 500 {
		t.Errorf("expected min 500, got %d", snap.MinLatencyNs)
	}
	if snap.MaxLatencyNs != 2000 {
		t.Errorf("expected max 2000, got %d", snap.MaxLatencyNs)
	}
	if snap.AvgLatencyNs != 1250 {
		t.Errorf("expected avg 1250, got %d", snap.AvgLatencyNs)
	}
}

func TestSnapshotIsCumulative(t *testing.T) {
	a := metrics.NewAggregator()
	observe(a, 700, 32)
	observe(a, 300, 32)

	first := a.Snapshot()
	second := a.Snapshot()

	// Percentile and counter fields must match between consecutive
	// snapshots with no intervening observation or reset.
	first.Elapsed, second.Elapsed = 0, 0
	first.ElapsedMs, second.ElapsedMs = 0, 0
	first.PacketsPerSec, second.PacketsPerSec = 0, 0
	if first != second {
		t.Errorf("consecutive snapshots differ: %+v vs %+v", first, second)
	}
}

func TestMalformedCountedSeparately(t *testing.T) {
	a := metrics.NewAggregator()
	observe(a, 400, 32)
	a.ObserveMalformed()
	a.ObserveMalformed()

	snap := a.Snapshot()
	if snap.Malformed != 2 {
		t.Errorf("expected malformed 2, got %d", snap.Malformed)
	}
	if snap.Packets != 1 {
		t.Errorf("malformed messages must not count as packets, got %d", snap.Packets)
	}
	if snap.Bytes != 32 {
		t.Errorf("malformed messages must not add bytes, got %d", snap.Bytes)
	}
}

func TestInvalidSampleDiscarded(t *testing.T) {
	a := metrics.NewAggregator()
	a.Observe(metrics.Sample{LatencyNs: 999, Valid: false}, 32)

	snap := a.Snapshot()
	if snap.Packets != 0 || snap.Bytes != 0 || snap.TotalLatencyNs != 0 {
		t.Errorf("invalid sample must not be aggregated, got %+v", snap)
	}
}

func TestNegativeLatencySurfacesUnclamped(t *testing.T) {
	a := metrics.NewAggregator()
	observe(a, -250, 32)

	snap := a.Snapshot()
	if snap.Packets != 1 {
		t.Fatalf("expected packets 1, got %d", snap.Packets)
	}
	// Unsigned accumulation: a skewed clock shows up as a huge value, it
	// is never silently corrected.
	var zero uint64
	want := zero - 250
	if snap.TotalLatencyNs != want {
		t.Errorf("expected total %d, got %d", want, snap.TotalLatencyNs)
	}
	if snap.MinLatencyNs != want || snap.MaxLatencyNs != want {
		t.Errorf("expected min=max=%d, got min=%d max=%d", want, snap.MinLatencyNs, snap.MaxLatencyNs)
	}
}

func TestReset(t *testing.T) {
	a := metrics.NewAggregator()
	observe(a, 800, 32)
	a.ObserveMalformed()
	a.Reset()

	snap := a.Snapshot()
	if snap.Packets != 0 || snap.Bytes != 0 || snap.Malformed != 0 ||
		snap.TotalLatencyNs != 0 || snap.MinLatencyNs != 0 || snap.MaxLatencyNs != 0 {
		t.Errorf("expected zeroed snapshot after reset, got %+v", snap)
	}
}

func TestPercentiles(t *testing.T) {
	a := metrics.NewAggregator()
	// 100 samples: 1µs .. 100µs.
	for i := int64(1); i <= 100; i++ {
		observe(a, i*1000, 32)
	}

	snap := a.Snapshot()
	if snap.P50LatencyNs < 49_000 || snap.P50LatencyNs > 51_000 {
		t.Errorf("expected P50 ~50µs, got %dns", snap.P50LatencyNs)
	}
	if snap.P99LatencyNs < 98_000 || snap.P99LatencyNs > 100_100 {
		t.Errorf("expected P99 ~99µs, got %dns", snap.P99LatencyNs)
	}
}

func TestMerge(t *testing.T) {
	a := metrics.NewAggregator()
	b := metrics.NewAggregator()
	observe(a, 1000, 32)
	observe(a, 3000, 32)
	observe(b, 500, 32)

	merged := metrics.Merge(a.Snapshot(), b.Snapshot())
	if merged.Packets != 3 || merged.Bytes != 96 {
		t.Errorf("expected packets=3 bytes=96, got %+v", merged)
	}
	if merged.MinLatencyNs != 500 || merged.MaxLatencyNs != 3000 {
		t.Errorf("expected min=500 max=3000, got min=%d max=%d", merged.MinLatencyNs, merged.MaxLatencyNs)
	}
	if merged.AvgLatencyNs != 1500 {
		t.Errorf("expected avg 1500, got %d", merged.AvgLatencyNs)
	}
}

func TestMergeSkipsEmptyStreams(t *testing.T) {
	a := metrics.NewAggregator()
	observe(a, 2000, 32)

	merged := metrics.Merge(metrics.NewAggregator().Snapshot(), a.Snapshot())
	if merged.MinLatencyNs != 2000 {
		t.Errorf("empty stream must not contribute a zero min, got %d", merged.MinLatencyNs)
	}
}

func TestSnapshotJSONSchema(t *testing.T) {
	a := metrics.NewAggregator()
	observe(a, 1500, 32)

	data, err := json.Marshal(a.Snapshot())
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal snapshot: %v", err)
	}
	for _, key := range []string{"packets", "bytes", "malformed", "total_latency_ns",
		"min_latency_ns", "max_latency_ns", "avg_latency_ns", "packets_per_sec"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected JSON field %q", key)
		}
	}
}
