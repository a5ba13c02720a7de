//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-backed proactor emulation: a dedicated poller goroutine
// blocks in epoll_wait (the only suspension point), and on readiness hands
// the actual accept/read/write syscall plus handler invocation to the
// internal/concurrency worker pool, sized one-per-logical-CPU; only the
// poller goroutine is optionally CPU-pinned. This turns level-triggered readiness into completion
// semantics: a worker performs the syscall itself and reports the
// transferred byte count through OpContext, matching the contract in
// reactor.go.

package reactor

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/hioload/httpd/internal/affinity"
	"github.com/hioload/httpd/internal/concurrency"
	"github.com/hioload/httpd/socket"
)

// fdState tracks the queued operations and currently armed epoll events for
// one file descriptor.
type fdState struct {
	mu      sync.Mutex
	armed   uint32
	acceptQ []*OpContext
	readQ   []*OpContext
	writeQ  []*OpContext
}

type epollReactor struct {
	epfd int

	mu  sync.RWMutex
	fds map[int]*fdState

	exec *concurrency.Executor
	pin  bool

	acceptH AcceptHandler
	readH   ReadHandler
	writeH  WriteHandler

	closed  atomic.Bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewReactor constructs the Linux epoll-backed reactor. workers is the
// worker-pool size (callers pass runtime.NumCPU()); numaNode/pin request
// CPU affinity for the poller goroutine via internal/affinity.
func NewReactor(workers, numaNode int, pin bool) (EventReactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	r := &epollReactor{
		epfd:    epfd,
		fds:     make(map[int]*fdState),
		exec:    concurrency.NewExecutor(workers, numaNode),
		pin:     pin,
		closeCh: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.pollLoop(numaNode)
	return r, nil
}

func (r *epollReactor) SetAcceptHandler(h AcceptHandler) { r.acceptH = h }
func (r *epollReactor) SetReadHandler(h ReadHandler)     { r.readH = h }
func (r *epollReactor) SetWriteHandler(h WriteHandler)   { r.writeH = h }

func (r *epollReactor) stateFor(fd int) *fdState {
	r.mu.RLock()
	st, ok := r.fds[fd]
	r.mu.RUnlock()
	if ok {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.fds[fd]; ok {
		return st
	}
	st = &fdState{}
	r.fds[fd] = st
	return st
}

// lookupState fetches fd's state without creating it, so a stray epoll
// event arriving after Deassociate cannot resurrect a deleted entry.
func (r *epollReactor) lookupState(fd int) *fdState {
	r.mu.RLock()
	st := r.fds[fd]
	r.mu.RUnlock()
	return st
}

// Associate registers fd with epoll with no events armed; Post* arms the
// relevant direction on demand.
func (r *epollReactor) Associate(fd uintptr) error {
	r.stateFor(int(fd))
	ev := unix.EpollEvent{Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev)
}

// Deassociate removes fd from epoll, deletes its state, and completes every
// operation still queued on it as a cancellation. Called by the connection
// teardown path before the descriptor is closed.
func (r *epollReactor) Deassociate(fd uintptr) error {
	ifd := int(fd)
	r.mu.Lock()
	st, ok := r.fds[ifd]
	if ok {
		delete(r.fds, ifd)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, ifd, nil)
	r.drainState(st)
	return err
}

// drainState completes every queued operation on st with a cancellation
// indication: reads and writes finish as zero-byte completions, accepts
// with ErrCanceled so the accept path never mistakes one for a new socket.
func (r *epollReactor) drainState(st *fdState) {
	st.mu.Lock()
	accepts, reads, writes := st.acceptQ, st.readQ, st.writeQ
	st.acceptQ, st.readQ, st.writeQ = nil, nil, nil
	st.armed = 0
	st.mu.Unlock()

	for _, ctx := range accepts {
		ctx.Size = 0
		ctx.Err = ErrCanceled
		if r.acceptH != nil {
			r.acceptH(ctx)
		}
	}
	for _, ctx := range reads {
		ctx.Size = 0
		ctx.Err = nil
		if r.readH != nil {
			r.readH(ctx)
		}
	}
	for _, ctx := range writes {
		ctx.Size = 0
		ctx.Err = nil
		if r.writeH != nil {
			r.writeH(ctx)
		}
	}
}

func (r *epollReactor) arm(fd int, bit uint32) error {
	st := r.lookupState(fd)
	if st == nil {
		return ErrNotAssociated
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.armed&bit != 0 {
		return nil
	}
	st.armed |= bit
	ev := unix.EpollEvent{Fd: int32(fd), Events: st.armed}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (r *epollReactor) PostAccept(ctx *OpContext) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}
	fd := int(ctx.Fd)
	st := r.lookupState(fd)
	if st == nil {
		return ErrNotAssociated
	}
	st.mu.Lock()
	st.acceptQ = append(st.acceptQ, ctx)
	st.mu.Unlock()
	return r.arm(fd, unix.EPOLLIN)
}

func (r *epollReactor) PostRead(ctx *OpContext) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}
	fd := int(ctx.Fd)
	st := r.lookupState(fd)
	if st == nil {
		return ErrNotAssociated
	}
	st.mu.Lock()
	st.readQ = append(st.readQ, ctx)
	st.mu.Unlock()
	return r.arm(fd, unix.EPOLLIN)
}

func (r *epollReactor) PostWrite(ctx *OpContext) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}
	fd := int(ctx.Fd)
	st := r.lookupState(fd)
	if st == nil {
		return ErrNotAssociated
	}
	st.mu.Lock()
	st.writeQ = append(st.writeQ, ctx)
	st.mu.Unlock()
	return r.arm(fd, unix.EPOLLOUT)
}

func (r *epollReactor) pollLoop(numaNode int) {
	defer r.wg.Done()
	if r.pin {
		_ = affinity.PinCurrentThread(numaNode, -1)
	}
	events := make([]unix.EpollEvent, 256)
	for {
		select {
		case <-r.closeCh:
			return
		default:
		}
		n, err := unix.EpollWait(r.epfd, events, 200)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if r.closed.Load() {
				return
			}
			continue
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)
			readable := ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0
			writable := ev.Events&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0
			if readable {
				r.dispatchReadable(fd)
			}
			if writable {
				r.dispatchWritable(fd)
			}
		}
	}
}

func (r *epollReactor) dispatchReadable(fd int) {
	st := r.lookupState(fd)
	if st == nil {
		return
	}
	st.mu.Lock()
	var acceptCtx, readCtx *OpContext
	if len(st.acceptQ) > 0 {
		acceptCtx = st.acceptQ[0]
		st.acceptQ = st.acceptQ[1:]
	} else if len(st.readQ) > 0 {
		readCtx = st.readQ[0]
		st.readQ = st.readQ[1:]
	}
	if len(st.acceptQ) == 0 && len(st.readQ) == 0 {
		st.armed &^= unix.EPOLLIN
		ev := unix.EpollEvent{Fd: int32(fd), Events: st.armed}
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
	}
	st.mu.Unlock()

	if acceptCtx != nil {
		h := r.acceptH
		_ = r.exec.Submit(func() { r.completeAccept(fd, acceptCtx, h) })
		return
	}
	if readCtx != nil {
		h := r.readH
		_ = r.exec.Submit(func() { r.completeRead(readCtx, h) })
	}
}

func (r *epollReactor) dispatchWritable(fd int) {
	st := r.lookupState(fd)
	if st == nil {
		return
	}
	st.mu.Lock()
	var writeCtx *OpContext
	if len(st.writeQ) > 0 {
		writeCtx = st.writeQ[0]
		st.writeQ = st.writeQ[1:]
	}
	if len(st.writeQ) == 0 {
		st.armed &^= unix.EPOLLOUT
		ev := unix.EpollEvent{Fd: int32(fd), Events: st.armed}
		_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
	}
	st.mu.Unlock()

	if writeCtx != nil {
		h := r.writeH
		_ = r.exec.Submit(func() { r.completeWrite(writeCtx, h) })
	}
}

func (r *epollReactor) completeAccept(listenFd int, ctx *OpContext, h AcceptHandler) {
	nfd, _, err := unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN {
			// spurious wake, resubmit the same request
			_ = r.PostAccept(ctx)
			return
		}
		ctx.Err = err
	} else if err := socket.ApplyAcceptedOptions(nfd); err != nil {
		unix.Close(nfd)
		ctx.Err = err
	} else {
		ctx.ClientFd = uintptr(nfd)
	}
	if h != nil {
		h(ctx)
	}
}

func (r *epollReactor) completeRead(ctx *OpContext, h ReadHandler) {
	n, err := unix.Read(int(ctx.Fd), ctx.Buffer[:cap(ctx.Buffer)])
	if n < 0 {
		n = 0
	}
	ctx.Size = n
	if err != nil && err != unix.EAGAIN {
		ctx.Err = err
	}
	if h != nil {
		h(ctx)
	}
}

func (r *epollReactor) completeWrite(ctx *OpContext, h WriteHandler) {
	n, err := unix.Write(int(ctx.Fd), ctx.Buffer[:ctx.Size])
	if n < 0 {
		n = 0
	}
	ctx.Size = n
	if err != nil && err != unix.EAGAIN {
		ctx.Err = err
	}
	if h != nil {
		h(ctx)
	}
}

func (r *epollReactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.closeCh)
	r.wg.Wait()

	// Outstanding operations complete with a cancellation indication
	// before the backend goes away.
	r.mu.Lock()
	states := make([]*fdState, 0, len(r.fds))
	for _, st := range r.fds {
		states = append(states, st)
	}
	r.fds = make(map[int]*fdState)
	r.mu.Unlock()
	for _, st := range states {
		r.drainState(st)
	}

	r.exec.Close()
	return unix.Close(r.epfd)
}
