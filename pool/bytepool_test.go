package pool_test

import (
	"testing"

	"github.com/hioload/httpd/pool"
)

func TestSimpleBytePoolRecycles(t *testing.T) {
	bp := pool.NewSimpleBytePool(1, 32)
	buf := bp.Get()
	if len(buf) != 32 {
		t.Fatalf("expected 32-byte buffer, got %d", len(buf))
	}
	bp.Put(buf)
	again := bp.Get()
	if &again[0] != &buf[0] {
		t.Fatal("expected the pooled buffer back on the next Get")
	}

	// Pool drained: Get must still hand out a fresh buffer.
	extra := bp.Get()
	if len(extra) != 32 {
		t.Fatalf("expected fresh 32-byte buffer, got %d", len(extra))
	}
}

func TestSimpleBytePoolAcquireRelease(t *testing.T) {
	bp := pool.NewSimpleBytePool(1, 32)

	small := bp.Acquire(8)
	if len(small) != 8 || cap(small) != 32 {
		t.Fatalf("expected pooled 8/32 buffer, got %d/%d", len(small), cap(small))
	}
	bp.Release(small)

	big := bp.Acquire(64)
	if len(big) != 64 {
		t.Fatalf("expected fresh 64-byte buffer, got %d", len(big))
	}

	// Undersized buffers never enter the pool.
	bp.Release(make([]byte, 8))
	if got := bp.Get(); &got[0] != &small[0] {
		t.Fatal("expected the released pooled buffer back, not the dropped one")
	}
}
