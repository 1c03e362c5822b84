package dashboard

import (
	"strings"
	"testing"

	"github.com/torosent/feedbench/internal/metrics"
	"github.com/torosent/feedbench/internal/output"
)

func TestGaugePercent(t *testing.T) {
	tests := []struct {
		name string
		pps  float64
		want int
	}{
		{"zero", 0, 0},
		{"half scale", 500, 50},
		{"full scale", 1000, 100},
		{"beyond scale", 250000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gaugePercent(tt.pps); got != tt.want {
				t.Errorf("gaugePercent(%v) = %d, want %d", tt.pps, got, tt.want)
			}
		})
	}
}

func TestFormatStreamRow(t *testing.T) {
	agg := metrics.NewAggregator()
	agg.Observe(metrics.Sample{LatencyNs: 2000, Valid: true}, 32)
	agg.ObserveMalformed()

	row := formatStreamRow(output.StreamReport{Stream: "239.1.1.1:12345", Stats: agg.Snapshot()})
	for _, want := range []string{"239.1.1.1:12345", "pkts=1", "avg=2.00 µs", "malformed=1"} {
		if !strings.Contains(row, want) {
			t.Errorf("row missing %q: %q", want, row)
		}
	}
}

func TestJoinLines(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{"empty", []string{}, ""},
		{"single", []string{"line1"}, "line1"},
		{"multiple", []string{"line1", "line2", "line3"}, "line1\nline2\nline3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinLines(tt.lines); got != tt.expected {
				t.Errorf("joinLines() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
