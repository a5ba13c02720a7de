// Package connctx provides thread-safe, propagation-aware context storage
// attached to each Connection, independent of platform.
package connctx
