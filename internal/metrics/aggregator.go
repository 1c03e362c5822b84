package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Aggregator maintains running receive statistics for one packet stream.
type Aggregator struct {
	mu        sync.Mutex
	hist      *hdrhistogram.Histogram
	packets   uint64
	bytes     uint64
	malformed uint64
	totalNs   uint64
	minNs     uint64
	maxNs     uint64
	start     time.Time
}

// Snapshot is an immutable point-in-time copy of accumulated statistics.
// It holds plain values only and retains no handle into the aggregator.
type Snapshot struct {
	Packets        uint64 `json:"packets"`
	Bytes          uint64 `json:"bytes"`
	Malformed      uint64 `json:"malformed"`
	TotalLatencyNs uint64 `json:"total_latency_ns"`
	MinLatencyNs   uint64 `json:"min_latency_ns"`
	MaxLatencyNs   uint64 `json:"max_latency_ns"`
	AvgLatencyNs   uint64 `json:"avg_latency_ns"`
	P50LatencyNs   int64  `json:"p50_latency_ns"`
	P90LatencyNs   int64  `json:"p90_latency_ns"`
	P99LatencyNs   int64  `json:"p99_latency_ns"`

	Elapsed       time.Duration `json:"-"`
	ElapsedMs     float64       `json:"elapsed_ms"`
	PacketsPerSec float64       `json:"packets_per_sec"`
}

func NewAggregator() *Aggregator {
	// Track latencies from 1ns up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000_000, 3)
	return &Aggregator{
		hist:  h,
		start: time.Now(),
	}
}

// Start marks the beginning of the measurement window used for the
// packets-per-second figure. Call it right before the receive loop starts
// so setup time is not counted.
func (a *Aggregator) Start() {
	a.mu.Lock()
	a.start = time.Now()
	a.mu.Unlock()
}

// Observe accounts for one valid received record of byteLen wire bytes.
// Invalid samples are discarded without touching any counter. The latency
// is accumulated as unsigned, so a negative (clock-skewed) sample shows up
// as an implausibly large value rather than being corrected.
func (a *Aggregator) Observe(s Sample, byteLen int) {
	if !s.Valid {
		return
	}
	latency := uint64(s.LatencyNs)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.packets++
	a.bytes += uint64(byteLen)
	a.totalNs += latency

	// The first observation seeds both bounds unconditionally; afterwards
	// only strict improvements move them.
	if a.packets == 1 || latency < a.minNs {
		a.minNs = latency
	}
	if a.packets == 1 || latency > a.maxNs {
		a.maxNs = latency
	}

	if s.LatencyNs > 0 {
		v := s.LatencyNs
		if v < a.hist.LowestTrackableValue() {
			v = a.hist.LowestTrackableValue()
		}
		if v > a.hist.HighestTrackableValue() {
			v = a.hist.HighestTrackableValue()
		}
		_ = a.hist.RecordValue(v)
	}
}

// ObserveMalformed counts a buffer that failed to decode. Malformed
// messages are tracked separately and never contribute to Packets, Bytes
// or the latency figures.
func (a *Aggregator) ObserveMalformed() {
	a.mu.Lock()
	a.malformed++
	a.mu.Unlock()
}

// Snapshot returns the current totals as an immutable copy. It never
// resets state: aggregation is cumulative unless Reset is called.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Packets:        a.packets,
		Bytes:          a.bytes,
		Malformed:      a.malformed,
		TotalLatencyNs: a.totalNs,
		MinLatencyNs:   a.minNs,
		MaxLatencyNs:   a.maxNs,
	}
	if a.packets > 0 {
		snap.AvgLatencyNs = a.totalNs / a.packets
	}
	if a.hist.TotalCount() > 0 {
		snap.P50LatencyNs = a.hist.ValueAtQuantile(50)
		snap.P90LatencyNs = a.hist.ValueAtQuantile(90)
		snap.P99LatencyNs = a.hist.ValueAtQuantile(99)
	}

	elapsed := time.Since(a.start)
	snap.Elapsed = elapsed
	snap.ElapsedMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 && a.packets > 0 {
		snap.PacketsPerSec = float64(a.packets) / elapsed.Seconds()
	}
	return snap
}

// Reset zeroes all counters and restarts the measurement window. It is an
// explicit external operation for interval-based reporting; nothing inside
// this package calls it.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.packets = 0
	a.bytes = 0
	a.malformed = 0
	a.totalNs = 0
	a.minNs = 0
	a.maxNs = 0
	a.hist.Reset()
	a.start = time.Now()
}

// Merge combines several snapshots into one, for the combined line of a
// multi-stream run. Percentiles are not merged; they remain per-stream.
func Merge(snaps ...Snapshot) Snapshot {
	var out Snapshot
	first := true
	for _, s := range snaps {
		out.Packets += s.Packets
		out.Bytes += s.Bytes
		out.Malformed += s.Malformed
		out.TotalLatencyNs += s.TotalLatencyNs
		out.PacketsPerSec += s.PacketsPerSec
		if s.Elapsed > out.Elapsed {
			out.Elapsed = s.Elapsed
			out.ElapsedMs = s.ElapsedMs
		}
		if s.Packets == 0 {
			continue
		}
		if first || s.MinLatencyNs < out.MinLatencyNs {
			out.MinLatencyNs = s.MinLatencyNs
		}
		if first || s.MaxLatencyNs > out.MaxLatencyNs {
			out.MaxLatencyNs = s.MaxLatencyNs
		}
		first = false
	}
	if out.Packets > 0 {
		out.AvgLatencyNs = out.TotalLatencyNs / out.Packets
	}
	return out
}
