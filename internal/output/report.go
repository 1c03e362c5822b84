// Package output formats statistics snapshots for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/torosent/feedbench/internal/metrics"
)

// StreamReport pairs a stream label with its final snapshot.
type StreamReport struct {
	Stream string           `json:"stream"`
	Stats  metrics.Snapshot `json:"stats"`
}

// Report is the final result of a receive run.
type Report struct {
	Streams  []StreamReport   `json:"streams"`
	Combined metrics.Snapshot `json:"combined"`
}

// BuildReport assembles the final report from per-stream snapshots.
func BuildReport(streams []StreamReport) Report {
	snaps := make([]metrics.Snapshot, len(streams))
	for i, s := range streams {
		snaps[i] = s.Stats
	}
	return Report{Streams: streams, Combined: metrics.Merge(snaps...)}
}

// PrintReport outputs a human-readable final report. Per-stream sections
// are printed only when more than one stream was received.
func PrintReport(w io.Writer, report Report) {
	if len(report.Streams) > 1 {
		for _, s := range report.Streams {
			printSnapshot(w, fmt.Sprintf("--- Statistics (%s) ---", s.Stream), s.Stats)
		}
		printSnapshot(w, "--- Final Statistics (all streams) ---", report.Combined)
		return
	}

	label := "--- Final Statistics ---"
	if len(report.Streams) == 1 {
		label = fmt.Sprintf("--- Final Statistics (%s) ---", report.Streams[0].Stream)
	}
	printSnapshot(w, label, report.Combined)
}

func printSnapshot(w io.Writer, header string, snap metrics.Snapshot) {
	fmt.Fprintf(w, "\n%s\n", header)
	fmt.Fprintf(w, "Total Packets:     %d\n", snap.Packets)
	fmt.Fprintf(w, "Total Bytes:       %d\n", snap.Bytes)
	fmt.Fprintf(w, "Malformed:         %d\n", snap.Malformed)
	fmt.Fprintf(w, "Duration:          %s\n", snap.Elapsed.Round(0))
	fmt.Fprintf(w, "Packets/sec:       %.2f\n", snap.PacketsPerSec)

	if snap.Packets == 0 {
		return
	}
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", Microseconds(snap.MinLatencyNs))
	fmt.Fprintf(w, "  Max:             %s\n", Microseconds(snap.MaxLatencyNs))
	fmt.Fprintf(w, "  Avg:             %s\n", Microseconds(snap.AvgLatencyNs))
	if snap.P50LatencyNs > 0 {
		fmt.Fprintf(w, "  P50:             %s\n", Microseconds(uint64(snap.P50LatencyNs)))
		fmt.Fprintf(w, "  P90:             %s\n", Microseconds(uint64(snap.P90LatencyNs)))
		fmt.Fprintf(w, "  P99:             %s\n", Microseconds(uint64(snap.P99LatencyNs)))
	}
}

// PrintJSONReport outputs the report as indented JSON.
func PrintJSONReport(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Microseconds renders a nanosecond figure the way the reports do: in
// microseconds with two decimals.
func Microseconds(ns uint64) string {
	return fmt.Sprintf("%.2f µs", float64(ns)/1000.0)
}
