// Package feed generates the synthetic UDP multicast market data stream
// that the receiver measures against.
package feed

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/torosent/feedbench/internal/wire"
)

// Options configure a Simulator.
type Options struct {
	Group    string        // multicast group address
	Port     int           // UDP port
	Symbol   string        // ticker embedded in every record
	Rate     int           // messages per second (0 means unpaced)
	Total    int           // total messages to send (0 means unlimited)
	Duration time.Duration // overall time limit (0 means no cap)
	TTL      int           // multicast TTL

	// Progress receives periodic send-rate lines; nil disables them.
	Progress io.Writer

	// LimiterFactory is an injection point for tests.
	LimiterFactory func(rps int) *rate.Limiter
}

func (o *Options) normalize() {
	if o.Symbol == "" {
		o.Symbol = "AAPL"
	}
	if o.TTL <= 0 {
		o.TTL = 2
	}
	if o.Progress == nil {
		o.Progress = io.Discard
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst of 1 keeps inter-send spacing uniform, which matters
			// more here than smoothing throughput.
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// Result summarizes a completed send run.
type Result struct {
	Sent    uint64
	Elapsed time.Duration
}

// Simulator publishes timestamped order book updates at a paced rate.
type Simulator struct {
	opt Options
}

func New(opt Options) *Simulator {
	opt.normalize()
	return &Simulator{opt: opt}
}

// Run dials the multicast group and sends until the configured total,
// duration, or cancellation stops it.
func (s *Simulator) Run(ctx context.Context) (Result, error) {
	ip := net.ParseIP(s.opt.Group)
	if ip == nil {
		return Result{}, fmt.Errorf("feed: invalid group address %q", s.opt.Group)
	}
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: ip, Port: s.opt.Port})
	if err != nil {
		return Result{}, fmt.Errorf("feed: dial %s:%d: %w", s.opt.Group, s.opt.Port, err)
	}
	defer conn.Close()

	if err := setMulticastTTL(conn, s.opt.TTL); err != nil {
		return Result{}, err
	}
	return s.send(ctx, conn)
}

// send runs the paced generation loop against any writer. Tests drive it
// directly with an in-memory writer.
func (s *Simulator) send(ctx context.Context, w io.Writer) (Result, error) {
	if s.opt.Duration > 0 {
		deadlineCtx, cancel := context.WithTimeout(ctx, s.opt.Duration)
		ctx = deadlineCtx
		defer cancel()
	}

	limiter := s.opt.LimiterFactory(s.opt.Rate)
	symbol := wire.MakeSymbol(s.opt.Symbol)
	var buf [wire.RecordSize]byte

	start := time.Now()
	var seq uint32
	for {
		if s.opt.Total > 0 && seq >= uint32(s.opt.Total) {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		wire.EncodeTo(nextRecord(symbol, seq), buf[:])
		if _, err := w.Write(buf[:]); err != nil {
			return Result{Sent: uint64(seq), Elapsed: time.Since(start)},
				fmt.Errorf("feed: send: %w", err)
		}
		seq++

		if s.opt.Rate > 0 && seq%uint32(s.opt.Rate) == 0 {
			elapsed := time.Since(start).Seconds()
			fmt.Fprintf(s.opt.Progress, "Sent %d messages in %.1fs (%.0f msg/sec)\n",
				seq, elapsed, float64(seq)/elapsed)
		}
	}

	return Result{Sent: uint64(seq), Elapsed: time.Since(start)}, nil
}

// nextRecord walks the quote around a base price so consecutive updates
// look like a live book rather than a constant.
func nextRecord(symbol [4]byte, seq uint32) wire.Record {
	base := uint32(10000 + seq%100) // cents
	return wire.Record{
		SendTimestampNs: uint64(time.Now().UnixNano()),
		Symbol:          symbol,
		BidPrice:        base - 5,
		BidSize:         1000 + seq%500,
		AskPrice:        base + 5,
		AskSize:         1000 + (seq+1)%500,
		Sequence:        seq,
	}
}

func setMulticastTTL(conn *net.UDPConn, ttl int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("feed: raw conn: %w", err)
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, ttl)
	})
	if err != nil {
		return fmt.Errorf("feed: set TTL: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("feed: set TTL: %w", sockErr)
	}
	return nil
}
