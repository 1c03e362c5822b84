// Package metrics provides per-stream latency measurement and aggregation.
//
// The package has two halves. [Compute] turns a decoded wire record plus a
// receive-side timestamp into a [Sample]; it is a pure function with no
// process-wide state. The [Aggregator] accumulates samples into running
// totals and hands out immutable [Snapshot] copies on demand.
//
// # Aggregator
//
//	agg := metrics.NewAggregator()
//	agg.Start()
//
//	// One call per valid received record.
//	agg.Observe(metrics.Compute(rec, recvNs), len(buf))
//
//	// At report time or shutdown.
//	snap := agg.Snapshot()
//
// Aggregation is cumulative: Snapshot never resets state, and two
// consecutive snapshots with no intervening Observe are identical. [
// Aggregator.Reset] exists for callers that want interval-based views but
// is never invoked internally.
//
// # Threading
//
// Each receive stream owns one Aggregator and is its only writer. The
// internal mutex exists so that snapshot readers (the progress reporter,
// the dashboard) can run on other goroutines; there is no shared mutable
// state across streams.
//
// # Clock skew
//
// When the simulator and the receiver do not share a clock, computed
// latency can go negative. Compute passes the value through unclamped and
// the aggregator accumulates it as unsigned, so skewed runs surface as
// implausible min/avg figures rather than being silently corrected.
package metrics
