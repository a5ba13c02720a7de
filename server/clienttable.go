// File: server/clienttable.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Mapping from socket descriptor to Connection, guarded by a single
// reader-writer lock: writers on accept and on removal, readers on every
// read/write dispatch. The key is a small dense uintptr fd, so one map
// suffices, with no shard hashing.

package server

import (
	"sync"

	"github.com/hioload/httpd/conn"
)

type clientTable struct {
	mu      sync.RWMutex
	clients map[uintptr]*conn.Connection
}

func newClientTable() *clientTable {
	return &clientTable{clients: make(map[uintptr]*conn.Connection)}
}

// insert adds c under the exclusive lock; called from the accept path.
func (t *clientTable) insert(c *conn.Connection) {
	t.mu.Lock()
	t.clients[c.Fd()] = c
	t.mu.Unlock()
}

// lookup fetches a connection under the shared lock; called from the
// read/write dispatch paths.
func (t *clientTable) lookup(fd uintptr) (*conn.Connection, bool) {
	t.mu.RLock()
	c, ok := t.clients[fd]
	t.mu.RUnlock()
	return c, ok
}

// remove deletes fd's entry under the exclusive lock; called from
// Connection.Close via the Host interface.
func (t *clientTable) remove(fd uintptr) {
	t.mu.Lock()
	delete(t.clients, fd)
	t.mu.Unlock()
}

// count reports the current number of tracked connections.
func (t *clientTable) count() int {
	t.mu.RLock()
	n := len(t.clients)
	t.mu.RUnlock()
	return n
}

// closeAll closes every tracked connection, used by Stop. Connection.Close
// itself calls remove, so this snapshots the values first to avoid
// mutating the map while ranging it.
func (t *clientTable) closeAll() {
	t.mu.RLock()
	snapshot := make([]*conn.Connection, 0, len(t.clients))
	for _, c := range t.clients {
		snapshot = append(snapshot, c)
	}
	t.mu.RUnlock()
	for _, c := range snapshot {
		c.Close()
	}
}
