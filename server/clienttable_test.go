package server

import (
	"syscall"
	"testing"

	"github.com/hioload/httpd/conn"
	"github.com/hioload/httpd/httpwire"
	"github.com/hioload/httpd/reactor"
	"github.com/hioload/httpd/socket"
)

// tableHost is the minimal conn.Host a clientTable test needs: Close on a
// connection removes it from the table, exactly as the real Server does.
type tableHost struct{ tbl *clientTable }

func (h *tableHost) Reactor() reactor.EventReactor { return nil }
func (h *tableHost) Dispatch(req *httpwire.Request) *httpwire.Response {
	return httpwire.NewResponse(200)
}
func (h *tableHost) ErrorResponse(status int) *httpwire.Response {
	return httpwire.NewResponse(status)
}
func (h *tableHost) RemoveConnection(fd uintptr) { h.tbl.remove(fd) }
func (h *tableHost) RecordClosed(st conn.Stats)  {}

func newTestConn(t *testing.T, host conn.Host) *conn.Connection {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() { syscall.Close(fds[1]) })
	sock := socket.FromFd(uintptr(fds[0]))
	return conn.New(sock, host, nil)
}

func TestClientTableInsertLookupRemove(t *testing.T) {
	tbl := newClientTable()
	c := newTestConn(t, &tableHost{tbl: tbl})
	fd := c.Fd()

	tbl.insert(c)
	if tbl.count() != 1 {
		t.Fatalf("expected count 1 after insert, got %d", tbl.count())
	}
	got, ok := tbl.lookup(fd)
	if !ok || got != c {
		t.Fatalf("expected lookup to find the inserted connection")
	}

	tbl.remove(fd)
	if tbl.count() != 0 {
		t.Fatalf("expected count 0 after remove, got %d", tbl.count())
	}
	if _, ok := tbl.lookup(fd); ok {
		t.Fatal("expected lookup to miss after remove")
	}
}

func TestClientTableCloseAll(t *testing.T) {
	tbl := newClientTable()
	host := &tableHost{tbl: tbl}
	c1 := newTestConn(t, host)
	c2 := newTestConn(t, host)
	tbl.insert(c1)
	tbl.insert(c2)

	tbl.closeAll()

	if !c1.Closed() || !c2.Closed() {
		t.Fatal("expected closeAll to close every tracked connection")
	}
	if tbl.count() != 0 {
		t.Fatalf("expected count 0 after closeAll (each Close removes itself), got %d", tbl.count())
	}
}
