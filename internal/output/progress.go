package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/feedbench/internal/metrics"
)

// StreamStats names an aggregator for periodic reporting.
type StreamStats struct {
	Name       string
	Aggregator *metrics.Aggregator
}

// Reporter prints a statistics line per stream at a fixed interval while
// the receive loops run.
type Reporter struct {
	streams  []StreamStats
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewReporter creates a periodic reporter over the given streams.
func NewReporter(streams []StreamStats, interval time.Duration, writer io.Writer) *Reporter {
	if writer == nil {
		writer = io.Discard
	}
	return &Reporter{
		streams:  streams,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins printing reports in a background goroutine.
func (r *Reporter) Start() {
	if !atomic.CompareAndSwapInt32(&r.active, 0, 1) {
		return // already running
	}
	go r.run()
}

// Stop halts reporting and waits for the reporting goroutine to finish.
func (r *Reporter) Stop() {
	if atomic.CompareAndSwapInt32(&r.active, 1, 0) {
		close(r.done)
		r.ticker.Stop()
		<-r.finished
	}
}

func (r *Reporter) run() {
	defer close(r.finished)
	for {
		select {
		case <-r.ticker.C:
			for _, s := range r.streams {
				fmt.Fprintln(r.writer, FormatProgressLine(s.Name, s.Aggregator.Snapshot(), len(r.streams) > 1))
			}
		case <-r.done:
			return
		}
	}
}

// FormatProgressLine renders one periodic statistics line in the style of
// the final report's latency units.
func FormatProgressLine(name string, snap metrics.Snapshot, withName bool) string {
	line := fmt.Sprintf("Packets: %d | Avg: %s | Min: %s | Max: %s | PPS: %.0f",
		snap.Packets,
		Microseconds(snap.AvgLatencyNs),
		Microseconds(snap.MinLatencyNs),
		Microseconds(snap.MaxLatencyNs),
		snap.PacketsPerSec,
	)
	if snap.Malformed > 0 {
		line += fmt.Sprintf(" | Malformed: %d", snap.Malformed)
	}
	if withName {
		line = fmt.Sprintf("[%s] %s", name, line)
	}
	return line
}
