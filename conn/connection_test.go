package conn_test

import (
	"sync"
	"syscall"
	"testing"

	"github.com/hioload/httpd/api"
	"github.com/hioload/httpd/conn"
	"github.com/hioload/httpd/httpwire"
	"github.com/hioload/httpd/reactor"
	"github.com/hioload/httpd/socket"
)

// fakeHost records the calls Connection makes through conn.Host, without
// wiring a real reactor; the tests below exercise Close's bookkeeping and
// the request/response pipeline, not actual socket I/O.
type fakeHost struct {
	mu        sync.Mutex
	removed   []uintptr
	closedSt  []conn.Stats
	dispatchN int
}

func (h *fakeHost) Reactor() reactor.EventReactor { return nil }

func (h *fakeHost) Dispatch(req *httpwire.Request) *httpwire.Response {
	h.mu.Lock()
	h.dispatchN++
	h.mu.Unlock()
	resp := httpwire.NewResponse(200)
	resp.SetBody([]byte("ok"))
	return resp
}

func (h *fakeHost) ErrorResponse(status int) *httpwire.Response {
	return httpwire.NewResponse(status)
}

func (h *fakeHost) RemoveConnection(fd uintptr) {
	h.mu.Lock()
	h.removed = append(h.removed, fd)
	h.mu.Unlock()
}

func (h *fakeHost) RecordClosed(st conn.Stats) {
	h.mu.Lock()
	h.closedSt = append(h.closedSt, st)
	h.mu.Unlock()
}

// fakeContext is a minimal api.Context for tests that don't exercise
// propagation semantics.
type fakeContext struct{}

func (fakeContext) Set(key string, value any, propagated bool) {}
func (fakeContext) Get(key string) (any, bool)                 { return nil, false }
func (fakeContext) Delete(key string)                          {}
func (fakeContext) Clone() api.Context                         { return fakeContext{} }
func (fakeContext) WithExpiration(key string, ttlNanos int64)  {}
func (fakeContext) IsPropagated(key string) bool               { return false }
func (fakeContext) Keys() []string                             { return nil }

// newTestSocket builds a connected socket pair and wraps one end as a
// *socket.Socket via the exported FromFd constructor, giving the
// Connection under test a real, closeable descriptor without a listen
// socket or reactor.
func newTestSocket(t *testing.T) *socket.Socket {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() { syscall.Close(fds[1]) })
	return socket.FromFd(uintptr(fds[0]))
}

func TestCloseIsIdempotentAndNotifiesHost(t *testing.T) {
	sock := newTestSocket(t)
	fd := sock.Fd()
	host := &fakeHost{}
	c := conn.New(sock, host, fakeContext{})

	c.Close()
	c.Close()
	c.Close()

	if !c.Closed() {
		t.Fatal("expected Closed() true after Close")
	}
	host.mu.Lock()
	defer host.mu.Unlock()
	if len(host.removed) != 1 {
		t.Fatalf("expected exactly one RemoveConnection call, got %d", len(host.removed))
	}
	if host.removed[0] != fd {
		t.Fatalf("expected removal keyed by original fd %d, got %d", fd, host.removed[0])
	}
	if len(host.closedSt) != 1 {
		t.Fatalf("expected exactly one RecordClosed call, got %d", len(host.closedSt))
	}
}

func TestOnReadRawEmptyReadClosesConnection(t *testing.T) {
	sock := newTestSocket(t)
	host := &fakeHost{}
	c := conn.New(sock, host, fakeContext{})

	c.OnReadRaw(0, nil)

	if !c.Closed() {
		t.Fatal("expected a zero-byte read completion to close the connection")
	}
}

func TestOnWriteRawAlwaysCloses(t *testing.T) {
	sock := newTestSocket(t)
	host := &fakeHost{}
	c := conn.New(sock, host, fakeContext{})

	c.OnWriteRaw(2, nil)

	if !c.Closed() {
		t.Fatal("expected a write completion to close the connection (no keep-alive)")
	}
}

// noopReactor satisfies reactor.EventReactor with no-op Post*, used by the
// oversize-boundary test below so the accepted (< 64 KiB) case can run the
// dispatch/PostWrite path without a real socket completion loop.
type noopReactor struct{}

func (noopReactor) Associate(uintptr) error                { return nil }
func (noopReactor) Deassociate(uintptr) error              { return nil }
func (noopReactor) PostAccept(*reactor.OpContext) error    { return nil }
func (noopReactor) PostRead(*reactor.OpContext) error      { return nil }
func (noopReactor) PostWrite(*reactor.OpContext) error     { return nil }
func (noopReactor) SetAcceptHandler(reactor.AcceptHandler) {}
func (noopReactor) SetReadHandler(reactor.ReadHandler)     {}
func (noopReactor) SetWriteHandler(reactor.WriteHandler)   {}
func (noopReactor) Close() error                           { return nil }

type reactorHost struct{ fakeHost }

func (*reactorHost) Reactor() reactor.EventReactor { return noopReactor{} }

func TestOversizeBoundary(t *testing.T) {
	const bufCap = 64 * 1024

	t.Run("exactly 65535 bytes is accepted", func(t *testing.T) {
		sock := newTestSocket(t)
		host := &reactorHost{}
		c := conn.New(sock, host, fakeContext{})

		c.OnReadRaw(bufCap-1, nil)

		if c.Closed() {
			t.Fatal("a read completion just under the buffer capacity must not close the connection")
		}
	})

	t.Run("reaching 65536 bytes without a complete request closes without response", func(t *testing.T) {
		sock := newTestSocket(t)
		host := &reactorHost{}
		c := conn.New(sock, host, fakeContext{})

		c.OnReadRaw(bufCap, nil)

		if !c.Closed() {
			t.Fatal("a read completion reaching the buffer capacity must close the connection")
		}
	})
}
