// Package source delivers raw multicast datagrams with receive-side
// timestamps to the measurement pipeline.
//
// Two interchangeable implementations exist. [SocketSource] blocks inside
// the kernel receive call and yields at most one packet per invocation.
// [PollSource] never blocks: it drains the socket in bursts and otherwise
// returns empty-handed, so its caller spins at full CPU. The spinning is
// the point of the comparison, not a defect.
package source

import (
	"context"
	"errors"
)

// Packet is one received datagram paired with its arrival timestamp.
type Packet struct {
	// Data is the datagram payload. It is owned by the pipeline only for
	// the duration of one decode+aggregate step and must be handed back
	// through Release before the next burst is requested.
	Data []byte
	// RecvNs is the local receive timestamp in nanoseconds since epoch.
	RecvNs int64
}

// ErrInterrupted marks a retryable receive interruption. The receive loop
// continues after it; every other error from ReceiveBurst is fatal to the
// stream.
var ErrInterrupted = errors.New("source: receive interrupted")

// Source is the pull contract both receive strategies implement.
type Source interface {
	// ReceiveBurst fills dst with zero or more packets and reports how
	// many were written. Packets delivered alongside a non-nil error were
	// received before the failure and must still be processed.
	ReceiveBurst(ctx context.Context, dst []Packet) (int, error)

	// Release returns a packet's buffer to the source once the pipeline
	// is done with it.
	Release(p Packet)

	// Close releases the underlying transport. Safe to call once the
	// receive loop has exited.
	Close() error
}
