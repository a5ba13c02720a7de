// File: conn/connection.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Per-connection state machine: buffers, read/write pending flags, and
// close coordination. A Connection speaks one HTTP/1.1 request/response
// per accepted socket, then closes; the server never emits keep-alive.

package conn

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/hioload/httpd/api"
	"github.com/hioload/httpd/httpwire"
	"github.com/hioload/httpd/pool"
	"github.com/hioload/httpd/reactor"
	"github.com/hioload/httpd/socket"
)

// readBufSize is the fixed read-buffer capacity; a message that grows to
// this size without completing fails the connection closed.
const readBufSize = 64 * 1024

// parseScratch recycles the snapshot buffers OnReadRaw hands to the parser.
// Safe to return after onRead: the parser copies the bytes into its own
// string before any of them escape into the Request.
var parseScratch = pool.NewSimpleBytePool(64, readBufSize)

// Host is the non-owning back-reference a Connection uses to reach its
// owning Server, breaking the server↔connection reference cycle. The
// server outlives all connections by construction: Stop closes every
// connection before releasing the reactor and route tree.
type Host interface {
	// Reactor returns the event reactor connections post I/O against.
	Reactor() reactor.EventReactor

	// Dispatch routes req, invokes the matching handler (or the
	// appropriate error handler on a routing miss), and returns the
	// response to serialize and write.
	Dispatch(req *httpwire.Request) *httpwire.Response

	// ErrorResponse builds the configured error-handler response for
	// status, used when req never parsed successfully.
	ErrorResponse(status int) *httpwire.Response

	// RemoveConnection deletes fd's entry from the client table.
	RemoveConnection(fd uintptr)

	// RecordClosed folds a closed connection's counters into server-wide
	// metrics.
	RecordClosed(Stats)
}

// Stats summarizes one connection's lifetime traffic, reported to the host
// on close.
type Stats struct {
	BytesIn  uint64
	BytesOut uint64
	Requests uint64
}

// Connection is shared between the client table and any in-flight I/O
// context; the last holder to release it allows it to be garbage
// collected. The reactor holds it via OpContext.UserData while an
// operation is in flight, and the client table holds it while registered.
type Connection struct {
	sock *socket.Socket
	host Host
	ctx  api.Context

	// opMu serializes PostRead/PostWrite/Close against each other and
	// guards both buffers.
	opMu        sync.Mutex
	readBuf     [readBufSize]byte
	accumulated int
	writeBuf    api.Buffer

	readPending  atomic.Bool
	writePending atomic.Bool
	closed       atomic.Bool
	pendingClose atomic.Bool

	bytesIn  uint64
	bytesOut uint64
	requests uint64
}

// New constructs a Connection wrapping an already-accepted socket. The
// caller (Server's accept callback) inserts it into the client table
// before calling PostRead.
func New(sock *socket.Socket, host Host, ctx api.Context) *Connection {
	return &Connection{sock: sock, host: host, ctx: ctx}
}

// Fd returns the underlying socket descriptor.
func (c *Connection) Fd() uintptr { return c.sock.Fd() }

// Context returns the per-connection diagnostic context, independent of
// the routing path-parameter map.
func (c *Connection) Context() api.Context { return c.ctx }

// Closed reports whether Close has completed the CAS that begins teardown.
func (c *Connection) Closed() bool { return c.closed.Load() }

// Status derives the connection's lifecycle state from its atomic flags,
// for debug probes and stats dumps.
func (c *Connection) Status() api.ConnStatus {
	switch {
	case c.closed.Load():
		return api.ConnClosed
	case c.pendingClose.Load():
		return api.ConnClosing
	case c.writePending.Load():
		return api.ConnWriting
	case c.readPending.Load():
		return api.ConnReading
	default:
		return api.ConnOpen
	}
}

// PendingClose reports whether Close has been entered (teardown may still
// be in flight). Read/write dispatch in the server checks this before
// touching a connection found under the client table's shared lock, so a
// completion racing with Close never runs against a half-torn-down
// connection.
func (c *Connection) PendingClose() bool { return c.pendingClose.Load() }

// PostRead submits a read into the unused tail of the read buffer. A
// no-op if the connection is closed or a read is already pending, since the
// design guarantees at most one read in flight per connection.
func (c *Connection) PostRead() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed.Load() || c.readPending.Load() {
		return
	}
	c.readPending.Store(true)
	opCtx := reactor.AcquireOpContext()
	opCtx.Kind = reactor.OpRead
	opCtx.Fd = c.Fd()
	opCtx.Buffer = c.readBuf[c.accumulated:]
	opCtx.UserData = c
	if err := c.host.Reactor().PostRead(opCtx); err != nil {
		reactor.ReleaseOpContext(opCtx)
		c.readPending.Store(false)
		go c.Close()
	}
}

// PostWrite copies data into a pooled buffer and submits a write. Empty
// messages are silently dropped.
func (c *Connection) PostWrite(data []byte) {
	if len(data) == 0 {
		return
	}
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.closed.Load() || c.writePending.Load() {
		return
	}
	buf := pool.DefaultPool(len(data), -1)
	n := copy(buf.Bytes(), data)
	c.writeBuf = buf
	c.writePending.Store(true)

	opCtx := reactor.AcquireOpContext()
	opCtx.Kind = reactor.OpWrite
	opCtx.Fd = c.Fd()
	opCtx.Buffer = buf.Bytes()[:n]
	opCtx.Size = n
	opCtx.UserData = c
	if err := c.host.Reactor().PostWrite(opCtx); err != nil {
		reactor.ReleaseOpContext(opCtx)
		c.writeBuf.Release()
		c.writeBuf = api.Buffer{}
		c.writePending.Store(false)
		go c.Close()
	}
}

// OnReadRaw is invoked by the server's reactor read callback with the
// completed operation. n == 0 means the peer closed the connection.
// Accumulating to readBufSize without a complete request fails the
// connection closed without a response.
func (c *Connection) OnReadRaw(n int, opErr error) {
	c.opMu.Lock()
	c.readPending.Store(false)
	if n == 0 || opErr != nil {
		c.opMu.Unlock()
		c.Close()
		return
	}
	c.accumulated += n
	atomic.AddUint64(&c.bytesIn, uint64(n))
	if c.accumulated >= readBufSize {
		c.opMu.Unlock()
		log.Printf("conn: fd %d exceeded %d bytes without a complete request, closing", c.Fd(), readBufSize)
		c.recordError(api.ErrCodeOversizeMessage, "message exceeded read buffer without completing")
		c.Close()
		return
	}
	data := parseScratch.Get()[:c.accumulated]
	copy(data, c.readBuf[:c.accumulated])
	c.accumulated = 0
	c.opMu.Unlock()

	c.onRead(data)
	parseScratch.Put(data[:readBufSize])
}

// onRead parses the accumulated bytes, dispatches through the host, and
// posts the serialized response. The Host interface stands in for a direct
// server import, which would cycle back into this package. Any parse or
// routing failure is tagged against the connection's diagnostic context
// before the error response is sent.
func (c *Connection) onRead(data []byte) {
	req, err := httpwire.Parse(data)
	var resp *httpwire.Response
	if err != nil {
		resp = c.host.ErrorResponse(400)
		var parseErr *httpwire.ParseError
		if errors.As(err, &parseErr) {
			c.recordError(errorCodeForParsePhase(parseErr.Phase), parseErr.Error())
		}
	} else {
		resp = c.host.Dispatch(req)
		if code, ok := errorCodeForStatus(resp.Status); ok {
			c.recordError(code, resp.Reason())
		}
	}
	atomic.AddUint64(&c.requests, 1)
	out := resp.Serialize()
	atomic.AddUint64(&c.bytesOut, uint64(len(out)))
	c.PostWrite(out)
}

// recordError stashes the last failure this connection saw under
// "last_error" in its diagnostic context, retrievable via Context() for
// debug dumps without disturbing the routing path-parameter map.
func (c *Connection) recordError(code api.ErrorCode, message string) {
	c.ctx.Set("last_error", api.NewError(code, message), false)
}

// errorCodeForParsePhase maps an httpwire.ParseError's phase to its
// api.ErrorCode.
func errorCodeForParsePhase(phase httpwire.Phase) api.ErrorCode {
	switch phase {
	case httpwire.PhaseMethod:
		return api.ErrCodeParseMethod
	case httpwire.PhaseURI:
		return api.ErrCodeParseURI
	case httpwire.PhaseVersion:
		return api.ErrCodeParseVersion
	case httpwire.PhaseBody:
		return api.ErrCodeParseBody
	default:
		return api.ErrCodeParseHeaders
	}
}

// errorCodeForStatus maps a dispatch response's routing-miss status to its
// api.ErrorCode; ok is false for any other status (nothing to record: 2xx
// and handler-chosen statuses are not failures).
func errorCodeForStatus(status int) (code api.ErrorCode, ok bool) {
	switch status {
	case 404:
		return api.ErrCodeRouteNotFound, true
	case 405:
		return api.ErrCodeMethodNotAllowed, true
	default:
		return api.ErrCodeOK, false
	}
}

// OnWriteRaw is invoked by the server's reactor write callback. n == 0
// means the write failed; otherwise HTTP/1.1 without keep-alive means the
// connection always closes after one response.
func (c *Connection) OnWriteRaw(n int, opErr error) {
	c.opMu.Lock()
	c.writePending.Store(false)
	c.writeBuf.Release()
	c.writeBuf = api.Buffer{}
	c.opMu.Unlock()

	if n == 0 || opErr != nil {
		c.Close()
		return
	}
	c.onWrite()
}

// onWrite closes the connection: the server never emits keep-alive.
func (c *Connection) onWrite() {
	c.Close()
}

// Close is CAS-based single-entry teardown: the first caller to flip
// closed from false→true deassociates the fd from the reactor (completing
// any queued operations as cancellations), closes the fd, then removes the
// connection from the client table. All later callers return immediately.
func (c *Connection) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.pendingClose.Store(true)

	fd := c.Fd()
	if rct := c.host.Reactor(); rct != nil {
		_ = rct.Deassociate(fd)
	}
	c.opMu.Lock()
	_ = c.sock.Close()
	c.opMu.Unlock()

	c.host.RemoveConnection(fd)
	c.host.RecordClosed(Stats{
		BytesIn:  atomic.LoadUint64(&c.bytesIn),
		BytesOut: atomic.LoadUint64(&c.bytesOut),
		Requests: atomic.LoadUint64(&c.requests),
	})
}
