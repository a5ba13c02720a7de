// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NUMA-aware executor: an MPMC task queue backed by eapache/queue, dispatched
// to a resizable pool of worker goroutines.

package concurrency

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
)

// ErrExecutorClosed is returned by Submit once the executor has been closed.
var ErrExecutorClosed = errors.New("concurrency: executor closed")

// TaskFunc is a unit of work dispatched to a worker.
type TaskFunc func()

// Executor runs submitted tasks on a fixed-then-resizable pool of goroutines.
// The queue itself is not thread-safe (eapache/queue makes no such guarantee),
// so all access is guarded by mu and signaled via cond.
type Executor struct {
	mu       sync.Mutex
	cond     *sync.Cond
	q        *queue.Queue
	closed   bool
	numaNode int
	workers  int
	genStop  []chan struct{} // one stop channel per live worker generation
	wg       sync.WaitGroup
}

// NewExecutor starts numWorkers goroutines draining a shared task queue.
// numaNode is advisory only; callers that want real CPU/NUMA pinning should
// use internal/affinity from the worker goroutine itself.
func NewExecutor(numWorkers, numaNode int) *Executor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	e := &Executor{
		q:        queue.New(),
		numaNode: numaNode,
	}
	e.cond = sync.NewCond(&e.mu)
	e.spawnLocked(numWorkers)
	return e
}

// spawnLocked must be called with e.mu held.
func (e *Executor) spawnLocked(n int) {
	for i := 0; i < n; i++ {
		stop := make(chan struct{})
		e.genStop = append(e.genStop, stop)
		e.workers++
		e.wg.Add(1)
		go e.run(stop)
	}
}

func (e *Executor) run(stop <-chan struct{}) {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.q.Length() == 0 && !e.closed {
			select {
			case <-stop:
				e.mu.Unlock()
				return
			default:
			}
			e.cond.Wait()
		}
		if e.q.Length() == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		select {
		case <-stop:
			e.mu.Unlock()
			return
		default:
		}
		item := e.q.Peek()
		e.q.Remove()
		e.mu.Unlock()

		if task, ok := item.(TaskFunc); ok {
			task()
		}
	}
}

// Submit enqueues a task for asynchronous execution.
func (e *Executor) Submit(task TaskFunc) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrExecutorClosed
	}
	e.q.Add(task)
	e.mu.Unlock()
	e.cond.Signal()
	return nil
}

// NumWorkers reports the current worker goroutine count.
func (e *Executor) NumWorkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workers
}

// Resize grows or shrinks the worker pool to newCount goroutines.
func (e *Executor) Resize(newCount int) {
	if newCount <= 0 {
		newCount = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if newCount > e.workers {
		e.spawnLocked(newCount - e.workers)
		return
	}
	for e.workers > newCount {
		idx := len(e.genStop) - 1
		close(e.genStop[idx])
		e.genStop = e.genStop[:idx]
		e.workers--
	}
	e.cond.Broadcast()
}

// Close stops all workers once the queue drains; it does not discard
// already-submitted tasks.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	e.wg.Wait()
}
