package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// MaxDatagram is the largest datagram either source will accept. Feed
// records are 32 bytes, but the receive path tolerates anything up to a
// jumbo-frame payload.
const MaxDatagram = 2048

// defaultWakeInterval bounds how long a blocked socket read can outlive a
// cancellation request.
const defaultWakeInterval = 250 * time.Millisecond

// SocketSource receives through the kernel with one blocking read per
// burst. Cancellation is observed by waking out of the read on a short
// deadline, the Go analog of an EINTR'd recvfrom.
type SocketSource struct {
	conn         *net.UDPConn
	wakeInterval time.Duration
	buf          [MaxDatagram]byte
}

// Listen joins the multicast group on the default interface and returns a
// blocking socket source bound to port.
func Listen(group string, port int) (*SocketSource, error) {
	ip := net.ParseIP(group)
	if ip == nil {
		return nil, fmt.Errorf("source: invalid group address %q", group)
	}
	conn, err := net.ListenMulticastUDP("udp4", nil, &net.UDPAddr{IP: ip, Port: port})
	if err != nil {
		return nil, fmt.Errorf("source: join %s:%d: %w", group, port, err)
	}
	return NewSocketSource(conn), nil
}

// NewSocketSource wraps an already bound connection. Tests use this with a
// plain unicast socket.
func NewSocketSource(conn *net.UDPConn) *SocketSource {
	return &SocketSource{
		conn:         conn,
		wakeInterval: defaultWakeInterval,
	}
}

// ReceiveBurst blocks for up to the wake interval and delivers at most one
// packet. A deadline expiry surfaces as ErrInterrupted so the loop can
// check cancellation and retry; any other failure is fatal.
//
// The returned packet aliases an internal buffer that is reused on the
// next call, which is exactly the ownership window the pipeline promises.
func (s *SocketSource) ReceiveBurst(ctx context.Context, dst []Packet) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(dst) == 0 {
		return 0, nil
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(s.wakeInterval)); err != nil {
		return 0, fmt.Errorf("source: set read deadline: %w", err)
	}
	n, _, err := s.conn.ReadFromUDP(s.buf[:])
	recvNs := time.Now().UnixNano()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return 0, ErrInterrupted
		}
		return 0, fmt.Errorf("source: receive: %w", err)
	}

	dst[0] = Packet{Data: s.buf[:n], RecvNs: recvNs}
	return 1, nil
}

// Release is a no-op: the single receive buffer is reclaimed implicitly by
// the next ReceiveBurst call.
func (s *SocketSource) Release(Packet) {}

func (s *SocketSource) Close() error {
	return s.conn.Close()
}
