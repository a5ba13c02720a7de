// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import "github.com/hioload/httpd/api"

// BytePool provides zero-copy buffer management (thread/NUMA aware).
type BytePool interface {
    Get() []byte
    Put([]byte)
}

// SimpleBytePool is a fixed-size buffer pool backed by a buffered channel,
// so Get and Put are safe for concurrent use.
type SimpleBytePool struct {
    bufs chan []byte
    size int
}

// NewSimpleBytePool creates a new pool with the given capacity and buffer size.
func NewSimpleBytePool(capacity, size int) *SimpleBytePool {
    bp := &SimpleBytePool{
        bufs: make(chan []byte, capacity),
        size: size,
    }
    for i := 0; i < capacity; i++ {
        bp.bufs <- make([]byte, size)
    }
    return bp
}

func (bp *SimpleBytePool) Get() []byte {
    select {
    case b := <-bp.bufs:
        return b
    default:
        return make([]byte, bp.size)
    }
}

func (bp *SimpleBytePool) Put(b []byte) {
    select {
    case bp.bufs <- b:
    default:
        // Discard if pool is full.
    }
}

var _ api.BytePool = (*SimpleBytePool)(nil)

// Acquire implements api.BytePool: a pooled buffer when n fits the pool's
// fixed size, a fresh allocation otherwise.
func (bp *SimpleBytePool) Acquire(n int) []byte {
    if n <= bp.size {
        return bp.Get()[:n]
    }
    return make([]byte, n)
}

// Release implements api.BytePool. Buffers with at least the pool's fixed
// capacity re-enter the pool (resliced to full size) when there is room;
// undersized buffers are dropped.
func (bp *SimpleBytePool) Release(buf []byte) {
    if cap(buf) < bp.size {
        return
    }
    bp.Put(buf[:bp.size])
}
