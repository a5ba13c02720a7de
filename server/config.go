// File: server/config.go
// Package server defines the embeddable HTTP/1.1 server's configuration
// surface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Config collects everything tunable before Start: listen address,
// backlog, buffer sizes, NUMA/affinity hints, and the metrics/debug
// toggles. DefaultConfig is the supported baseline.

package server

import (
	"net"
	"strconv"
	"time"
)

const (
	defaultReadBufferSize  = 64 * 1024
	defaultWriteBufferSize = 64 * 1024
	defaultBacklog         = 1000
	defaultInitialAccepts  = 100
)

// Config holds every parameter the embedding host can tune before Start.
type Config struct {
	// ListenAddr is "host:port" or ":port" for all interfaces.
	ListenAddr string

	// Port, if ListenAddr is empty, is used directly as the bind port.
	Port int

	// Backlog is the listen(2) backlog.
	Backlog int

	// InitialAccepts is the number of accepts posted at Start.
	InitialAccepts int

	// MaxConnections is carried in the Config but not read by the Server:
	// accepted connections are not capped, and the accept loop replenishes
	// unconditionally whatever its value.
	MaxConnections int

	// ReadBufferSize/WriteBufferSize default to 64 KiB.
	ReadBufferSize  int
	WriteBufferSize int

	// NUMANode and CPUAffinity request CPU pinning of the reactor's poller
	// goroutine via internal/affinity; the reactor's workers are not pinned.
	// CPUAffinity false disables it. NUMANode also keys the server's buffer
	// pool.
	NUMANode    int
	CPUAffinity bool

	// ShutdownTimeout is carried in the Config but not read by Stop, which
	// closes every tracked connection synchronously with no time bound.
	ShutdownTimeout time.Duration

	// HeartbeatInterval, if > 0, schedules a periodic stats log via
	// api.Scheduler. 0 disables the heartbeat.
	HeartbeatInterval time.Duration

	// EnableMetrics gates the server's metrics publishing and its
	// server.* debug probes in Control.Stats(). EnableDebug is not read by
	// the Server. Both default true.
	EnableMetrics bool
	EnableDebug   bool

	// ExecutorWorkers sizes the application-level task executor exposed
	// via Server.GetExecutor, independent of the reactor's own worker
	// pool. 0 defaults to runtime.NumCPU() at construction time.
	ExecutorWorkers int
}

// DefaultConfig returns the baseline configuration: 64 KiB buffers, a 1000
// backlog, 100 initial accepts, metrics/debug on, no heartbeat, no
// affinity pinning.
func DefaultConfig() *Config {
	return &Config{
		Backlog:         defaultBacklog,
		InitialAccepts:  defaultInitialAccepts,
		ReadBufferSize:  defaultReadBufferSize,
		WriteBufferSize: defaultWriteBufferSize,
		NUMANode:        -1,
		CPUAffinity:     false,
		ShutdownTimeout: 30 * time.Second,
		EnableMetrics:   true,
		EnableDebug:     true,
	}
}

// resolvePort returns the port to bind: ListenAddr's port if set (parsed
// with net.SplitHostPort, accepting the ":9000" shorthand), otherwise Port
// directly.
func (c *Config) resolvePort() (int, error) {
	if c.ListenAddr == "" {
		return c.Port, nil
	}
	_, portStr, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
