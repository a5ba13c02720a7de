// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Platform-neutral proactor contract and operation context. Concrete
// backends (epoll-based emulation on Linux, native IOCP on Windows) live in
// the platform-tagged files beside this one.

package reactor

import (
	"errors"

	"github.com/hioload/httpd/pool"
)

// ErrReactorClosed is returned by Post* once the reactor has been closed.
var ErrReactorClosed = errors.New("reactor: closed")

// ErrNotAssociated is returned by Post* for a socket that was never
// associated, or whose state Deassociate has already dropped.
var ErrNotAssociated = errors.New("reactor: fd not associated")

// ErrCanceled marks an accept context completed by Deassociate or Close
// rather than by a real accepted socket; read/write cancellations carry a
// zero byte count instead, indistinguishable from a peer close.
var ErrCanceled = errors.New("reactor: operation canceled")

// OpKind identifies the operation an OpContext carries.
type OpKind int

const (
	OpAccept OpKind = iota
	OpRead
	OpWrite
)

// OpContext is the heap-allocated record ferried between the issuer and the
// reactor's completion dispatcher. Ownership passes to the reactor on
// submission and returns to the completion handler at dispatch.
type OpContext struct {
	Kind OpKind

	// Fd is the socket the operation targets (listen socket for accept).
	Fd uintptr

	// Buffer/Size describe the region read from/written to. After
	// completion Size holds the transferred byte count (0 == peer closed
	// or cancellation).
	Buffer []byte
	Size   int

	// ClientFd is populated on accept completion with the new socket.
	ClientFd uintptr

	// Err carries any completion error (including cancellation).
	Err error

	// UserData is an opaque back-pointer the issuer attaches and the
	// handler reads back: *conn.Connection for read/write, server-side
	// state for accept.
	UserData any
}

// AcceptHandler, ReadHandler and WriteHandler are invoked by a reactor
// worker thread on completion of the corresponding operation kind.
type AcceptHandler func(ctx *OpContext)
type ReadHandler func(ctx *OpContext)
type WriteHandler func(ctx *OpContext)

// EventReactor abstracts a completion-based I/O model: worker threads wait
// for completed I/O and invoke the handler registered for the completion's
// operation kind. The reactor performs no user-level policy; it is pure
// fan-out.
type EventReactor interface {
	// Associate registers a socket so its completions flow through this
	// reactor.
	Associate(fd uintptr) error

	// Deassociate unregisters a socket. Operations still queued on it
	// complete through their handlers with a cancellation indication
	// (zero-byte completion for reads and writes, ErrCanceled for
	// accepts), and the reactor drops all state held for the fd. Callers
	// invoke this before closing the descriptor.
	Deassociate(fd uintptr) error

	// PostAccept submits an asynchronous accept on ctx.Fd; completion
	// delivers the new socket in ctx.ClientFd.
	PostAccept(ctx *OpContext) error

	// PostRead submits a read into ctx.Buffer, up to its capacity (ctx.Size
	// is not consulted); completion sets ctx.Size to the transferred byte
	// count.
	PostRead(ctx *OpContext) error

	// PostWrite submits a write of ctx.Buffer[0:ctx.Size]; completion
	// semantics are symmetric to PostRead.
	PostWrite(ctx *OpContext) error

	// SetAcceptHandler, SetReadHandler and SetWriteHandler install the
	// completion callbacks. Call before Post*.
	SetAcceptHandler(h AcceptHandler)
	SetReadHandler(h ReadHandler)
	SetWriteHandler(h WriteHandler)

	// Close releases the reactor's backend resources and stops its
	// worker threads. Outstanding operations complete with a
	// cancellation indication (zero-byte completion) where possible.
	Close() error
}

// opCtxPool recycles OpContext values to avoid a heap allocation per
// accept/read/write submission.
var opCtxPool = pool.NewSyncPool(func() *OpContext { return &OpContext{} })

// AcquireOpContext returns a zeroed OpContext from the shared free list.
func AcquireOpContext() *OpContext {
	ctx := opCtxPool.Get()
	*ctx = OpContext{}
	return ctx
}

// ReleaseOpContext returns ctx to the free list. Callers must not touch ctx
// after calling this.
func ReleaseOpContext(ctx *OpContext) {
	opCtxPool.Put(ctx)
}
