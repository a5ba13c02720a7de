// File: pool/base_bufferpool.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral BufferPool: one free-list per NUMA key, reused regardless
// of the exact size requested as long as capacity suffices. No memory-affinity
// syscalls are involved here; the NUMA key only partitions the free lists, so
// connections accepted on the same node tend to reuse buffers pooled for that
// node.

package pool

import (
	"sync/atomic"

	"github.com/hioload/httpd/api"
)

const bufferPoolCapacity = 1024

// nodeBufferPool holds a single free-list for one NUMA key.
type nodeBufferPool struct {
	numaID int
	free   chan []byte

	allocCount atomic.Int64
	freeCount  atomic.Int64
}

func newNodeBufferPool(numaID int) *nodeBufferPool {
	return &nodeBufferPool{
		numaID: numaID,
		free:   make(chan []byte, bufferPoolCapacity),
	}
}

// Get returns a Buffer of at least size bytes, reused from the free list
// when available and large enough, otherwise freshly allocated.
func (p *nodeBufferPool) Get(size int, numaPreferred int) api.Buffer {
	select {
	case raw := <-p.free:
		if cap(raw) >= size {
			p.allocCount.Add(1)
			return api.Buffer{Data: raw[:size], NUMA: p.numaID, Pool: p}
		}
	default:
	}
	p.allocCount.Add(1)
	return api.Buffer{Data: make([]byte, size), NUMA: p.numaID, Pool: p}
}

// Put implements api.Releaser; it returns the buffer to the free list.
func (p *nodeBufferPool) Put(b api.Buffer) {
	if b.Data == nil {
		return
	}
	p.freeCount.Add(1)
	select {
	case p.free <- b.Data[:cap(b.Data)]:
	default:
		// free list full, let GC reclaim it
	}
}

func (p *nodeBufferPool) Stats() api.BufferPoolStats {
	alloc := p.allocCount.Load()
	free := p.freeCount.Load()
	return api.BufferPoolStats{
		TotalAlloc: alloc,
		TotalFree:  free,
		InUse:      alloc - free,
		NUMAStats:  map[int]int64{p.numaID: alloc},
	}
}

var _ api.BufferPool = (*nodeBufferPool)(nil)

// newBufferPool constructs the platform-neutral buffer pool for a NUMA key.
func newBufferPool(numaNode int) api.BufferPool {
	return newNodeBufferPool(numaNode)
}
