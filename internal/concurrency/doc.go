// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform concurrency primitives: a mutex-guarded task executor and
// a timer-backed scheduler, backing the reactor's worker pool and the
// server's heartbeat. CPU/NUMA pinning lives in internal/affinity.
package concurrency
