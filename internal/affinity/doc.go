// File: internal/affinity/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package affinity pins the calling goroutine (the reactor's poller
// goroutine, or a host goroutine via adapters.AffinityAdapter) to an OS
// thread bound to a specific CPU core, using pure-Go syscalls only (no cgo,
// no libnuma/hwloc).
// NUMA node counts are read from sysfs on Linux and default to 1 elsewhere.
package affinity
