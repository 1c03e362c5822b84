package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/torosent/feedbench/internal/config"
	"github.com/torosent/feedbench/internal/dashboard"
	"github.com/torosent/feedbench/internal/metrics"
	"github.com/torosent/feedbench/internal/output"
	"github.com/torosent/feedbench/internal/pipeline"
	"github.com/torosent/feedbench/internal/pool"
	"github.com/torosent/feedbench/internal/source"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type streamRun struct {
	name string
	agg  *metrics.Aggregator
	pipe *pipeline.Pipeline
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	streams := cfg.ResolvedStreams()

	// Bind and join every group up front so a bad address or a busy port
	// fails the run before any packet is counted.
	runs := make([]streamRun, 0, len(streams))
	sources := make([]source.Source, 0, len(streams))
	closeSources := func() {
		for _, src := range sources {
			src.Close()
		}
	}
	for _, st := range streams {
		src, err := openSource(cfg, st)
		if err != nil {
			closeSources()
			return fmt.Errorf("open %s: %w", st, err)
		}
		sources = append(sources, src)

		agg := metrics.NewAggregator()
		pipe, err := pipeline.New(pipeline.Options{
			Source:     src,
			Aggregator: agg,
			Burst:      cfg.Burst,
		})
		if err != nil {
			closeSources()
			return err
		}
		runs = append(runs, streamRun{name: st.String(), agg: agg, pipe: pipe})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, cfg.Duration)
		defer cancelTimeout()
	}

	stats := make([]output.StreamStats, len(runs))
	for i, r := range runs {
		stats[i] = output.StreamStats{Name: r.name, Aggregator: r.agg}
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(stats, cancel)
		if err != nil {
			closeSources()
			return err
		}
		dash.Start()
	}

	var progress *output.Reporter
	if !cfg.JSONOutput && !cfg.Dashboard && !cfg.Quiet {
		progress = output.NewReporter(stats, cfg.ReportInterval, os.Stdout)
		progress.Start()
	}

	// Each stream runs its own receive loop; the pipeline closes its
	// source on return.
	finals := make([]output.StreamReport, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range runs {
		i, r := i, r
		g.Go(func() error {
			snap, err := r.pipe.Run(gctx)
			finals[i] = output.StreamReport{Stream: r.name, Stats: snap}
			return err
		})
	}
	runErr := g.Wait()

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}
	if dash != nil {
		dash.Stop()
	}

	report := output.BuildReport(finals)
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, report)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	return nil
}

func openSource(cfg *config.Config, st config.Stream) (source.Source, error) {
	switch cfg.Mode {
	case config.ModePoll:
		bufs := pool.NewBufferPool(cfg.PoolSize, source.MaxDatagram)
		return source.OpenPoll(st.Group, st.Port, bufs)
	default:
		return source.Listen(st.Group, st.Port)
	}
}
