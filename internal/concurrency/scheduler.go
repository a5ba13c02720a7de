// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Delayed single-shot callback scheduling backed by time.AfterFunc. A
// per-task timer is sufficient here: the one recurring user, the server's
// periodic stats heartbeat, re-schedules itself after every firing rather
// than needing a shared priority queue of many concurrent timers.

package concurrency

import (
	"sync"
	"time"
)

// timerHandle adapts a *time.Timer to api.Cancelable.
type timerHandle struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

// Cancel stops the underlying timer. Safe to call more than once or after
// the timer has already fired.
func (h *timerHandle) Cancel() error {
	h.timer.Stop()
	h.once.Do(func() { close(h.done) })
	return nil
}

// Done closes once the callback has fired or Cancel was called.
func (h *timerHandle) Done() <-chan struct{} { return h.done }

// Err always returns nil: a fired or canceled timer is not itself an
// error condition.
func (h *timerHandle) Err() error { return nil }

// Scheduler drives delayed callbacks for api.Scheduler.
type Scheduler struct{}

// NewScheduler constructs a Scheduler. It holds no state of its own; each
// Schedule call owns an independent timer.
func NewScheduler() *Scheduler { return &Scheduler{} }

// Schedule runs fn once delayNanos has elapsed, on its own goroutine.
func (s *Scheduler) Schedule(delayNanos int64, fn func()) (*timerHandle, error) {
	h := &timerHandle{done: make(chan struct{})}
	h.timer = time.AfterFunc(time.Duration(delayNanos), func() {
		defer h.once.Do(func() { close(h.done) })
		fn()
	})
	return h, nil
}

// Cancel stops a previously scheduled callback.
func (s *Scheduler) Cancel(h *timerHandle) error { return h.Cancel() }

// Now returns monotonic-adjacent wall-clock time in nanoseconds.
func (s *Scheduler) Now() int64 { return time.Now().UnixNano() }
