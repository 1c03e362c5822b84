package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/torosent/feedbench/internal/pool"
)

// BurstSize bounds how many packets one poll-mode ReceiveBurst delivers.
const BurstSize = 32

// PollSource receives on a non-blocking descriptor and never suspends.
// An empty socket yields an empty burst and the caller re-invokes
// immediately, occupying its core the whole time.
type PollSource struct {
	fd   int
	pool *pool.BufferPool
}

// OpenPoll creates a non-blocking multicast socket joined to group on
// port, drawing receive buffers from bufs.
func OpenPoll(group string, port int, bufs *pool.BufferPool) (*PollSource, error) {
	ip := net.ParseIP(group)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("source: invalid group address %q", group)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, fmt.Errorf("source: socket: %w", err)
	}
	if err := configurePollSocket(fd, ip, port); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return NewPollSource(fd, bufs), nil
}

func configurePollSocket(fd int, ip net.IP, port int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("source: set SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		return fmt.Errorf("source: bind port %d: %w", port, err)
	}

	var mreq unix.IPMreq
	copy(mreq.Multiaddr[:], ip.To4())
	if err := unix.SetsockoptIPMreq(fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, &mreq); err != nil {
		return fmt.Errorf("source: join %s: %w", ip, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("source: set nonblocking: %w", err)
	}
	return nil
}

// NewPollSource wraps an existing non-blocking descriptor. Tests use this
// with one end of a datagram socketpair.
func NewPollSource(fd int, bufs *pool.BufferPool) *PollSource {
	if bufs == nil {
		bufs = pool.NewBufferPool(BurstSize*2, MaxDatagram)
	}
	return &PollSource{fd: fd, pool: bufs}
}

// ReceiveBurst drains up to len(dst) packets without ever blocking. An
// empty socket is not an error: the burst simply comes back with n == 0.
// The cancellation flag is checked once per invocation.
func (s *PollSource) ReceiveBurst(ctx context.Context, dst []Packet) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	for n < len(dst) {
		buf := s.pool.Get()
		nr, _, err := unix.Recvfrom(s.fd, buf, unix.MSG_DONTWAIT)
		if err != nil {
			s.pool.Put(buf)
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
				break
			}
			return n, fmt.Errorf("source: recvfrom: %w", err)
		}
		dst[n] = Packet{Data: buf[:nr], RecvNs: time.Now().UnixNano()}
		n++
	}
	return n, nil
}

// Release hands the packet's buffer back to the pool.
func (s *PollSource) Release(p Packet) {
	if p.Data == nil {
		return
	}
	s.pool.Put(p.Data[:cap(p.Data)])
}

func (s *PollSource) Close() error {
	return unix.Close(s.fd)
}
