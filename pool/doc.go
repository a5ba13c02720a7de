// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// High-performance, cross-platform buffer pooling layer.
// Implements NUMA-aware, zero-copy pools for all supported OS (Linux/Windows).
// All core methods are thread-safe or explicitly document the concurrency contract.
package pool
