// Package pipeline drives the receive-and-measure loop for one packet
// stream: source, wire decode, latency computation, aggregation.
//
// One goroutine owns one Pipeline for its whole lifetime. Packets are
// processed strictly in arrival order; sequence numbers are carried
// through but never used to reorder or deduplicate.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/torosent/feedbench/internal/metrics"
	"github.com/torosent/feedbench/internal/source"
	"github.com/torosent/feedbench/internal/wire"
)

// Options configure a Pipeline.
type Options struct {
	Source     source.Source       // packet source (required)
	Aggregator *metrics.Aggregator // per-stream statistics (required)
	Burst      int                 // max packets requested per burst
}

func (o *Options) normalize() {
	if o.Burst <= 0 {
		o.Burst = source.BurstSize
	}
}

// Pipeline consumes one stream until cancellation or a fatal transport
// error.
type Pipeline struct {
	opt Options
}

func New(opt Options) (*Pipeline, error) {
	if opt.Source == nil {
		return nil, fmt.Errorf("pipeline: source is required")
	}
	if opt.Aggregator == nil {
		return nil, fmt.Errorf("pipeline: aggregator is required")
	}
	opt.normalize()
	return &Pipeline{opt: opt}, nil
}

// Run receives until ctx is cancelled or the source fails fatally. Any
// in-flight burst is fully processed before the loop exits; the final
// snapshot therefore reflects every packet that was ever delivered. The
// source is closed on every exit path.
func (p *Pipeline) Run(ctx context.Context) (metrics.Snapshot, error) {
	defer p.opt.Source.Close()

	p.opt.Aggregator.Start()
	burst := make([]source.Packet, p.opt.Burst)

	var runErr error
loop:
	for {
		n, err := p.opt.Source.ReceiveBurst(ctx, burst)

		// Packets handed over alongside an error were received before
		// the failure and still count.
		for i := 0; i < n; i++ {
			p.process(burst[i])
			p.opt.Source.Release(burst[i])
			burst[i] = source.Packet{}
		}

		switch {
		case err == nil:
		case errors.Is(err, source.ErrInterrupted):
			// Retryable wakeup, usually the cancellation check on the
			// blocking path.
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			break loop
		default:
			runErr = err
			break loop
		}

		if ctx.Err() != nil {
			break
		}
	}

	return p.opt.Aggregator.Snapshot(), runErr
}

func (p *Pipeline) process(pkt source.Packet) {
	rec, err := wire.Decode(pkt.Data)
	if err != nil {
		// Short buffers are dropped from the statistics perspective but
		// tracked in their own counter.
		p.opt.Aggregator.ObserveMalformed()
		return
	}
	p.opt.Aggregator.Observe(metrics.Compute(rec, pkt.RecvNs), len(pkt.Data))
}
