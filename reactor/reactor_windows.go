//go:build windows
// +build windows

// File: reactor/reactor_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows IOCP (I/O Completion Port) reactor. Unlike the Linux backend this
// one is a native proactor: ReadFile/WriteFile are issued with an OVERLAPPED
// structure and the kernel itself reports the transferred byte count through
// GetQueuedCompletionStatus, so no readiness emulation is needed for reads
// and writes. Accept has no true overlapped equivalent wired here (AcceptEx
// requires a pre-bound socket buffer dance out of scope for this package),
// so PostAccept falls back to a blocking accept on a worker goroutine.

package reactor

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/hioload/httpd/internal/affinity"
	"github.com/hioload/httpd/internal/concurrency"
	"github.com/hioload/httpd/socket"
)

// overlappedOp pairs a Windows OVERLAPPED with the OpContext it serves.
type overlappedOp struct {
	ov  windows.Overlapped
	ctx *OpContext
}

type iocpReactor struct {
	iocp windows.Handle

	mu  sync.Mutex
	ops map[*overlappedOp]struct{}

	exec *concurrency.Executor
	pin  bool

	acceptH AcceptHandler
	readH   ReadHandler
	writeH  WriteHandler

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewReactor constructs the Windows IOCP-backed reactor.
func NewReactor(workers, numaNode int, pin bool) (EventReactor, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	r := &iocpReactor{
		iocp: port,
		ops:  make(map[*overlappedOp]struct{}),
		exec: concurrency.NewExecutor(workers, numaNode),
		pin:  pin,
	}
	r.wg.Add(1)
	go r.pollLoop(numaNode)
	return r, nil
}

func (r *iocpReactor) SetAcceptHandler(h AcceptHandler) { r.acceptH = h }
func (r *iocpReactor) SetReadHandler(h ReadHandler)     { r.readH = h }
func (r *iocpReactor) SetWriteHandler(h WriteHandler)   { r.writeH = h }

func (r *iocpReactor) Associate(fd uintptr) error {
	_, err := windows.CreateIoCompletionPort(windows.Handle(fd), r.iocp, 0, 0)
	return err
}

// Deassociate cancels every overlapped operation pending on fd. The
// cancellations surface through the completion port: each one dequeues
// with zero transferred bytes and dispatches to its handler like a peer
// close, after which no state for the fd remains in the reactor.
func (r *iocpReactor) Deassociate(fd uintptr) error {
	err := windows.CancelIoEx(windows.Handle(fd), nil)
	if err == windows.ERROR_NOT_FOUND {
		// nothing pending on the handle
		return nil
	}
	return err
}

func (r *iocpReactor) track(op *overlappedOp) {
	r.mu.Lock()
	r.ops[op] = struct{}{}
	r.mu.Unlock()
}

func (r *iocpReactor) untrack(op *overlappedOp) {
	r.mu.Lock()
	delete(r.ops, op)
	r.mu.Unlock()
}

func (r *iocpReactor) PostAccept(ctx *OpContext) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}
	return r.exec.Submit(func() {
		// No AcceptEx wiring: accept blocks this worker goroutine only,
		// the poller loop is unaffected.
		fd := windows.Handle(ctx.Fd)
		nfd, _, err := windows.Accept(fd)
		if err != nil {
			ctx.Err = err
		} else if err := socket.ApplyAcceptedOptions(nfd); err != nil {
			windows.Closesocket(nfd)
			ctx.Err = err
		} else {
			ctx.ClientFd = uintptr(nfd)
		}
		if r.acceptH != nil {
			r.acceptH(ctx)
		}
	})
}

func (r *iocpReactor) PostRead(ctx *OpContext) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}
	op := &overlappedOp{ctx: ctx}
	r.track(op)
	var done uint32
	buf := ctx.Buffer[:cap(ctx.Buffer)]
	err := windows.ReadFile(windows.Handle(ctx.Fd), buf, &done, &op.ov)
	if err != nil && err != windows.ERROR_IO_PENDING {
		r.untrack(op)
		ctx.Err = err
		ctx.Size = 0
		if r.readH != nil {
			r.readH(ctx)
		}
		return nil
	}
	return nil
}

func (r *iocpReactor) PostWrite(ctx *OpContext) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}
	op := &overlappedOp{ctx: ctx}
	r.track(op)
	var done uint32
	err := windows.WriteFile(windows.Handle(ctx.Fd), ctx.Buffer[:ctx.Size], &done, &op.ov)
	if err != nil && err != windows.ERROR_IO_PENDING {
		r.untrack(op)
		ctx.Err = err
		ctx.Size = 0
		if r.writeH != nil {
			r.writeH(ctx)
		}
		return nil
	}
	return nil
}

func (r *iocpReactor) pollLoop(numaNode int) {
	defer r.wg.Done()
	if r.pin {
		_ = affinity.PinCurrentThread(numaNode, -1)
	}
	for {
		var bytes uint32
		var key uintptr
		var ov *windows.Overlapped
		err := windows.GetQueuedCompletionStatus(r.iocp, &bytes, &key, &ov, 200)
		if r.closed.Load() {
			return
		}
		if ov == nil {
			// timeout or port-level failure with no operation attached
			continue
		}
		op := (*overlappedOp)(unsafe.Pointer(ov))
		r.untrack(op)
		ctx := op.ctx
		ctx.Size = int(bytes)
		if err != nil {
			// Canceled or failed operations dispatch as zero-byte
			// completions; handlers treat them as a clean close.
			ctx.Size = 0
		}

		var h func(*OpContext)
		switch ctx.Kind {
		case OpRead:
			if r.readH != nil {
				h = r.readH
			}
		case OpWrite:
			if r.writeH != nil {
				h = r.writeH
			}
		}
		if h != nil {
			handler := h
			_ = r.exec.Submit(func() { handler(ctx) })
		}
	}
}

func (r *iocpReactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.wg.Wait()

	// Operations the poller never dequeued complete here as cancellations.
	r.mu.Lock()
	pending := make([]*overlappedOp, 0, len(r.ops))
	for op := range r.ops {
		pending = append(pending, op)
	}
	r.ops = make(map[*overlappedOp]struct{})
	r.mu.Unlock()
	for _, op := range pending {
		ctx := op.ctx
		ctx.Size = 0
		switch ctx.Kind {
		case OpRead:
			if r.readH != nil {
				r.readH(ctx)
			}
		case OpWrite:
			if r.writeH != nil {
				r.writeH(ctx)
			}
		}
	}

	r.exec.Close()
	return windows.CloseHandle(r.iocp)
}
