// Package pool provides a fixed-size pool of receive buffers for the
// poll-mode packet source.
package pool

// BufferPool hands out fixed-size byte buffers and takes them back after
// the pipeline has finished with a packet. Keeping a bounded free list
// avoids per-packet allocation on the spin path.
type BufferPool struct {
	size int
	free chan []byte
}

// NewBufferPool creates a pool of count buffers of size bytes each.
func NewBufferPool(count, size int) *BufferPool {
	if count <= 0 {
		count = 64
	}
	if size <= 0 {
		size = 2048
	}
	p := &BufferPool{
		size: size,
		free: make(chan []byte, count),
	}
	for i := 0; i < count; i++ {
		p.free <- make([]byte, size)
	}
	return p
}

// BufferSize returns the length of every buffer the pool hands out.
func (p *BufferPool) BufferSize() int {
	return p.size
}

// Get returns a full-length buffer. When the free list is exhausted a
// fresh buffer is allocated so receive never stalls on the pool.
func (p *BufferPool) Get() []byte {
	select {
	case buf := <-p.free:
		return buf
	default:
		return make([]byte, p.size)
	}
}

// Put returns a buffer to the free list. Buffers of the wrong capacity and
// overflow buffers are dropped for the garbage collector.
func (p *BufferPool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	select {
	case p.free <- buf[:p.size]:
	default:
	}
}
