// Command smoketest publishes a short burst of market-data records over
// loopback multicast and receives them back through the full pipeline,
// then checks the aggregated counters. It exists for quick end-to-end
// verification on a development machine and is not part of the module's
// test suite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/torosent/feedbench/internal/feed"
	"github.com/torosent/feedbench/internal/metrics"
	"github.com/torosent/feedbench/internal/pipeline"
	"github.com/torosent/feedbench/internal/pool"
	"github.com/torosent/feedbench/internal/source"
)

func main() {
	group := flag.String("group", "239.255.77.1", "Multicast group for the loopback exchange")
	port := flag.Int("port", 45123, "UDP port for the loopback exchange")
	count := flag.Int("count", 1000, "Records to publish")
	mode := flag.String("mode", "socket", "Receive strategy: socket or poll")
	flag.Parse()

	if err := smoke(*group, *port, *count, *mode); err != nil {
		log.Fatal(err)
	}
}

func smoke(group string, port, count int, mode string) error {
	var (
		src source.Source
		err error
	)
	switch mode {
	case "socket":
		src, err = source.Listen(group, port)
	case "poll":
		src, err = source.OpenPoll(group, port, pool.NewBufferPool(64, source.MaxDatagram))
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}

	agg := metrics.NewAggregator()
	pipe, err := pipeline.New(pipeline.Options{Source: src, Aggregator: agg})
	if err != nil {
		src.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recvDone := make(chan metrics.Snapshot, 1)
	go func() {
		snap, runErr := pipe.Run(ctx)
		if runErr != nil {
			log.Printf("receive loop: %v", runErr)
		}
		recvDone <- snap
	}()

	sim := feed.New(feed.Options{
		Group: group,
		Port:  port,
		Rate:  0, // unpaced, this is a correctness check not a load test
		Total: count,
		TTL:   1,
	})
	result, err := sim.Run(context.Background())
	if err != nil {
		cancel()
		<-recvDone
		return err
	}

	// Give the kernel a moment to drain the receive queue.
	time.Sleep(200 * time.Millisecond)
	cancel()
	snap := <-recvDone

	fmt.Printf("sent %d records in %v, received %d (malformed %d)\n",
		result.Sent, result.Elapsed.Round(time.Millisecond), snap.Packets, snap.Malformed)
	if snap.Packets == 0 {
		return fmt.Errorf("no packets received: check that %s routes over loopback", group)
	}
	fmt.Printf("latency min/avg/max: %d/%d/%d ns\n", snap.MinLatencyNs, snap.AvgLatencyNs, snap.MaxLatencyNs)
	return nil
}
