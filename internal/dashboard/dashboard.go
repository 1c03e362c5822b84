// Package dashboard renders a live terminal view of receive statistics.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/feedbench/internal/output"
)

// Dashboard shows per-stream receive statistics while the pipelines run.
type Dashboard struct {
	streams      []output.StreamStats
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup

	grid           *ui.Grid
	summaryPara    *widgets.Paragraph
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	ppsGauge       *widgets.Gauge
	streamList     *widgets.List
	latencyHistory []float64
	startTime      time.Time
}

// New initializes the terminal UI. shutdownFunc is invoked when the user
// quits from inside the dashboard ('q' or Ctrl-C).
func New(streams []output.StreamStats, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		streams:        streams,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
	}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Avg latency (µs)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Real-time Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Waiting for packets..."
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.ppsGauge = widgets.NewGauge()
	d.ppsGauge.Title = "Packets Per Second"
	d.ppsGauge.Percent = 0
	d.ppsGauge.BarColor = ui.ColorBlue
	d.ppsGauge.BorderStyle.Fg = ui.ColorCyan
	d.ppsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.streamList = widgets.NewList()
	d.streamList.Title = "Streams"
	d.streamList.Rows = []string{"Awaiting data"}
	d.streamList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.streamList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Receive Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.20,
			ui.NewCol(1.0, d.ppsGauge),
		),
		ui.NewRow(0.32,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.streamList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give the terminal time to restore.
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Wait for Stop() to cancel the context.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) update() {
	report := d.buildReport()
	combined := report.Combined
	elapsed := time.Since(d.startTime)

	if combined.AvgLatencyNs > 0 {
		avgUs := float64(combined.AvgLatencyNs) / 1000.0
		d.latencyHistory = append(d.latencyHistory, avgUs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf(
			"Real-time Latency | Avg: %s | Min: %s | Max: %s",
			output.Microseconds(combined.AvgLatencyNs),
			output.Microseconds(combined.MinLatencyNs),
			output.Microseconds(combined.MaxLatencyNs),
		)
	}

	d.ppsGauge.Percent = gaugePercent(combined.PacketsPerSec)
	d.ppsGauge.Label = fmt.Sprintf("%.1f pkts/s", combined.PacketsPerSec)

	d.summaryPara.Text = joinLines([]string{
		fmt.Sprintf("Streams: %d", len(d.streams)),
		fmt.Sprintf("Elapsed: %s | Packets: %d | Bytes: %d | Malformed: %d",
			elapsed.Round(time.Second), combined.Packets, combined.Bytes, combined.Malformed),
		"Press q to stop",
	})

	d.latencyPara.Text = joinLines([]string{
		fmt.Sprintf("Min:  %s", output.Microseconds(combined.MinLatencyNs)),
		fmt.Sprintf("Avg:  %s", output.Microseconds(combined.AvgLatencyNs)),
		fmt.Sprintf("Max:  %s", output.Microseconds(combined.MaxLatencyNs)),
	})

	rows := make([]string, 0, len(report.Streams))
	for _, s := range report.Streams {
		rows = append(rows, formatStreamRow(s))
	}
	if len(rows) == 0 {
		rows = []string{"Awaiting data"}
	}
	d.streamList.Rows = rows
}

func (d *Dashboard) buildReport() output.Report {
	streamReports := make([]output.StreamReport, len(d.streams))
	for i, s := range d.streams {
		streamReports[i] = output.StreamReport{Stream: s.Name, Stats: s.Aggregator.Snapshot()}
	}
	return output.BuildReport(streamReports)
}

func (d *Dashboard) render() {
	ui.Render(d.grid)
}

// gaugePercent maps a packet rate onto the 0-100 gauge with a soft scale
// that stays readable for both trickle and firehose feeds.
func gaugePercent(pps float64) int {
	maxPPS := 1000.0
	if pps > maxPPS {
		maxPPS = pps
	}
	pct := int((pps / maxPPS) * 100)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func formatStreamRow(s output.StreamReport) string {
	return fmt.Sprintf("%s  pkts=%d  avg=%s  pps=%.0f  malformed=%d",
		s.Stream, s.Stats.Packets, output.Microseconds(s.Stats.AvgLatencyNs),
		s.Stats.PacketsPerSec, s.Stats.Malformed)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
