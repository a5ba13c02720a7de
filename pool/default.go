// File: pool/default.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide default BufferPoolManager so components that don't need a
// dedicated pool can share one without fragmenting allocations.

package pool

import (
	"sync"

	"github.com/hioload/httpd/api"
)

var (
	defaultOnce sync.Once
	defaultMgr  *BufferPoolManager
)

// DefaultManager returns the process-wide BufferPoolManager.
func DefaultManager() *BufferPoolManager {
	defaultOnce.Do(func() {
		defaultMgr = NewBufferPoolManager()
	})
	return defaultMgr
}

// DefaultPool acquires a Buffer of size bytes from the default manager's
// pool for numaPreferred.
func DefaultPool(size, numaPreferred int) api.Buffer {
	return DefaultManager().GetPool(numaPreferred).Get(size, numaPreferred)
}
