// File: adapters/scheduler_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SchedulerAdapter bridges internal/concurrency.Scheduler to api.Scheduler.

package adapters

import (
	"github.com/hioload/httpd/api"
	"github.com/hioload/httpd/internal/concurrency"
)

// SchedulerAdapter implements api.Scheduler by delegating to an internal
// concurrency.Scheduler.
type SchedulerAdapter struct {
	sched *concurrency.Scheduler
}

// NewSchedulerAdapter constructs an api.Scheduler.
func NewSchedulerAdapter() api.Scheduler {
	return &SchedulerAdapter{sched: concurrency.NewScheduler()}
}

// Schedule runs fn once delayNanos has elapsed.
func (a *SchedulerAdapter) Schedule(delayNanos int64, fn func()) (api.Cancelable, error) {
	return a.sched.Schedule(delayNanos, fn)
}

// Cancel stops a previously scheduled callback.
func (a *SchedulerAdapter) Cancel(c api.Cancelable) error {
	return c.Cancel()
}

// Now returns the scheduler's clock in nanoseconds.
func (a *SchedulerAdapter) Now() int64 {
	return a.sched.Now()
}
