package metrics

import "github.com/torosent/feedbench/internal/wire"

// Sample is one latency measurement taken from a received record.
type Sample struct {
	// LatencyNs is receive time minus embedded send time. Negative values
	// indicate clock skew between sender and receiver hosts and are not
	// clamped here.
	LatencyNs int64
	// Valid marks the sample for aggregation. Compute always produces
	// valid samples; callers that want to exclude a measurement clear the
	// flag before passing it to Observe.
	Valid bool
}

// Compute derives the one-way latency of rec given the local receive
// timestamp in nanoseconds since epoch.
func Compute(rec wire.Record, recvNs int64) Sample {
	return Sample{
		LatencyNs: recvNs - int64(rec.SendTimestampNs),
		Valid:     true,
	}
}
