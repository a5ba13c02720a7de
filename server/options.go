// File: server/options.go
// Package server defines functional options for Server construction.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Each option mutates the Config before New builds the Server; options
// passed to New are applied in order on top of the base Config.

package server

import "time"

// Option customizes a Config before a Server is constructed.
type Option func(*Config)

// WithPort sets the listen port directly, shorthand for a ":port"
// ListenAddr.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithListenAddr sets a full "host:port" listen address.
func WithListenAddr(addr string) Option {
	return func(c *Config) { c.ListenAddr = addr }
}

// WithBacklog overrides the listen(2) backlog.
func WithBacklog(n int) Option {
	return func(c *Config) { c.Backlog = n }
}

// WithMaxConnections sets Config.MaxConnections, which the Server does not
// read; accepted connections are not capped.
func WithMaxConnections(n int) Option {
	return func(c *Config) { c.MaxConnections = n }
}

// WithNUMANode sets the preferred NUMA node for reactor poller pinning.
func WithNUMANode(node int) Option {
	return func(c *Config) { c.NUMANode = node }
}

// WithCPUAffinity enables or disables reactor poller pinning.
func WithCPUAffinity(enabled bool) Option {
	return func(c *Config) { c.CPUAffinity = enabled }
}

// WithHeartbeat sets the periodic stats-log interval; 0 disables it.
func WithHeartbeat(interval time.Duration) Option {
	return func(c *Config) { c.HeartbeatInterval = interval }
}

// WithMetrics toggles Control.Stats() population.
func WithMetrics(enabled bool) Option {
	return func(c *Config) { c.EnableMetrics = enabled }
}

// WithDebug sets Config.EnableDebug, which the Server does not read.
func WithDebug(enabled bool) Option {
	return func(c *Config) { c.EnableDebug = enabled }
}

// WithExecutorWorkers sizes the application-level task executor returned
// by Server.GetExecutor.
func WithExecutorWorkers(n int) Option {
	return func(c *Config) { c.ExecutorWorkers = n }
}
