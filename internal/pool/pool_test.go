package pool_test

import (
	"testing"

	"github.com/torosent/feedbench/internal/pool"
)

func TestGetReturnsFullLengthBuffers(t *testing.T) {
	p := pool.NewBufferPool(4, 2048)
	buf := p.Get()
	if len(buf) != 2048 {
		t.Errorf("expected 2048-byte buffer, got %d", len(buf))
	}
}

func TestPutReusesBuffer(t *testing.T) {
	p := pool.NewBufferPool(1, 64)

	first := p.Get()
	p.Put(first[:10]) // pipeline hands back the sliced packet view

	second := p.Get()
	if len(second) != 64 {
		t.Errorf("expected restored full length 64, got %d", len(second))
	}
	if &first[0] != &second[0] {
		t.Error("expected the returned buffer to be reused")
	}
}

func TestGetAllocatesWhenExhausted(t *testing.T) {
	p := pool.NewBufferPool(1, 64)
	_ = p.Get()

	// Pool is empty now; Get must still deliver.
	buf := p.Get()
	if len(buf) != 64 {
		t.Errorf("expected a fresh 64-byte buffer, got %d", len(buf))
	}
}

func TestPutDropsForeignBuffers(t *testing.T) {
	p := pool.NewBufferPool(1, 64)
	keep := p.Get()

	p.Put(make([]byte, 32)) // wrong capacity, must be dropped

	buf := p.Get()
	if len(buf) != 64 {
		t.Errorf("expected a 64-byte buffer, got %d", len(buf))
	}
	p.Put(keep)
	p.Put(buf)
}
