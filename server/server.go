// File: server/server.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Server owns the listen socket, the reactor, the route tree, and the
// client table, and runs the accept → dispatch → write pipeline. Hosts
// register routes and error handlers before Start; Start returns once
// accepting begins and the host keeps the process alive.

package server

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hioload/httpd/adapters"
	"github.com/hioload/httpd/api"
	"github.com/hioload/httpd/conn"
	"github.com/hioload/httpd/httpwire"
	"github.com/hioload/httpd/pool"
	"github.com/hioload/httpd/reactor"
	"github.com/hioload/httpd/routepath"
	"github.com/hioload/httpd/routetree"
	"github.com/hioload/httpd/socket"
)

// Server is the embeddable HTTP/1.1 server library's entry point.
type Server struct {
	cfg    *Config
	logger *log.Logger

	listenSock *socket.Socket
	rct        reactor.EventReactor

	tree    *routetree.Tree
	clients *clientTable

	errMu       sync.RWMutex
	errHandlers map[int]ErrorHandler

	control    api.Control
	bufPool    api.BufferPool
	ctxFactory api.ContextFactory
	scheduler  api.Scheduler
	affinity   api.Affinity
	executor   api.Executor

	listening atomic.Bool
	heartbeat api.Cancelable
	startedAt time.Time

	accepted      atomic.Uint64
	closedConns   atomic.Uint64
	activeConns   atomic.Int64
	totalBytesIn  atomic.Uint64
	totalBytesOut atomic.Uint64
	totalRequests atomic.Uint64
}

var (
	_ conn.Host            = (*Server)(nil)
	_ api.GracefulShutdown = (*Server)(nil)
)

// New constructs a Server from cfg (or DefaultConfig if nil) with opts
// applied on top. Default error handlers for 400/404/405/500 are installed
// immediately; hosts may override any of them via AddErrorHandler.
func New(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	for _, o := range opts {
		o(cfg)
	}
	execWorkers := cfg.ExecutorWorkers
	if execWorkers <= 0 {
		execWorkers = runtime.NumCPU()
	}

	s := &Server{
		cfg:         cfg,
		startedAt:   time.Now(),
		logger:      log.New(os.Stderr, "[hioload-httpd] ", log.LstdFlags),
		tree:        routetree.New(),
		clients:     newClientTable(),
		errHandlers: make(map[int]ErrorHandler, 4),
		control:     adapters.NewControlAdapter(),
		bufPool:     pool.DefaultManager().GetPool(cfg.NUMANode),
		ctxFactory:  adapters.NewContextAdapter(),
		scheduler:   adapters.NewSchedulerAdapter(),
		affinity:    adapters.NewAffinityAdapter(),
		executor:    adapters.NewExecutorAdapter(execWorkers, cfg.NUMANode),
	}
	for _, status := range []int{400, 404, 405, 500} {
		s.errHandlers[status] = defaultErrorHandler
	}
	if cfg.EnableMetrics {
		s.registerMetricsProbes()
	}
	return s, nil
}

// AddRoute validates path, registers it in the route tree, and binds
// handler to each of methods (defaulting to GET). Returns the route node
// for chaining.
func (s *Server) AddRoute(path string, handler Handler, methods ...string) (*routetree.Node, error) {
	p, err := routepath.New(path)
	if err != nil {
		return nil, fmt.Errorf("server: add route %q: %w", path, err)
	}
	node, err := s.tree.AddRoute(p)
	if err != nil {
		return nil, fmt.Errorf("server: add route %q: %w", path, err)
	}
	if len(methods) == 0 {
		methods = []string{"GET"}
	}
	for _, m := range methods {
		node.AddHandler(m, handler)
	}
	return node, nil
}

// AddStaticRoute registers a GET-only file-serving route rooted at
// location.
func (s *Server) AddStaticRoute(path, location string) (*routetree.Node, error) {
	p, err := routepath.New(path)
	if err != nil {
		return nil, fmt.Errorf("server: add static route %q: %w", path, err)
	}
	node, err := s.tree.AddRoute(p)
	if err != nil {
		return nil, fmt.Errorf("server: add static route %q: %w", path, err)
	}
	node.ServeFiles(path, location)
	return node, nil
}

// AddErrorHandler overrides the response for status, replacing the default
// canonical-reason-phrase handler. Hosts may override any status.
func (s *Server) AddErrorHandler(status int, handler ErrorHandler) {
	s.errMu.Lock()
	s.errHandlers[status] = handler
	s.errMu.Unlock()
}

// Start builds the listen socket, wires it to a fresh reactor, installs
// the accept/read/write dispatch callbacks, and posts the configured
// number of initial accepts. It returns once accepting begins; the host
// keeps the process alive.
func (s *Server) Start() error {
	port, err := s.cfg.resolvePort()
	if err != nil {
		return fmt.Errorf("server: resolve port: %w", err)
	}
	sock, err := socket.Create(port)
	if err != nil {
		return fmt.Errorf("server: create listen socket: %w", err)
	}
	if err := sock.Listen(s.cfg.Backlog); err != nil {
		sock.Close()
		return fmt.Errorf("server: listen: %w", err)
	}

	workers := runtime.NumCPU()
	rct, err := reactor.NewReactor(workers, s.cfg.NUMANode, s.cfg.CPUAffinity)
	if err != nil {
		sock.Close()
		return fmt.Errorf("server: create reactor: %w", err)
	}
	if err := rct.Associate(sock.Fd()); err != nil {
		rct.Close()
		sock.Close()
		return fmt.Errorf("server: associate listen socket: %w", err)
	}

	s.listenSock = sock
	s.rct = rct
	rct.SetAcceptHandler(s.onAccept)
	rct.SetReadHandler(s.onReadComplete)
	rct.SetWriteHandler(s.onWriteComplete)

	s.listening.Store(true)

	for i := 0; i < s.cfg.InitialAccepts; i++ {
		s.postAccept()
	}

	if s.cfg.HeartbeatInterval > 0 {
		s.startHeartbeat()
	}

	s.logger.Printf("listening on port %d (backlog %d, %d initial accepts)", port, s.cfg.Backlog, s.cfg.InitialAccepts)
	return nil
}

// postAccept submits one accept operation against the listen socket.
func (s *Server) postAccept() {
	opCtx := reactor.AcquireOpContext()
	opCtx.Kind = reactor.OpAccept
	opCtx.Fd = s.listenSock.Fd()
	if err := s.rct.PostAccept(opCtx); err != nil {
		reactor.ReleaseOpContext(opCtx)
		s.logger.Printf("accept: %v", err)
	}
}

// onAccept is the reactor's accept completion callback: build a
// Connection, insert it into the client table under the exclusive lock,
// post one read, and post one more accept to replenish.
func (s *Server) onAccept(ctx *reactor.OpContext) {
	defer reactor.ReleaseOpContext(ctx)
	if ctx.Err != nil {
		// Cancellations arrive here during Stop; only a live listener
		// logs and replenishes.
		if s.listening.Load() {
			s.logger.Printf("accept error: %v", ctx.Err)
			s.postAccept()
		}
		return
	}

	sock := socket.FromFd(ctx.ClientFd)
	if err := s.rct.Associate(sock.Fd()); err != nil {
		s.logger.Printf("associate accepted socket: %v", err)
		sock.Close()
		s.postAccept()
		return
	}

	c := conn.New(sock, s, s.ctxFactory.NewContext())
	s.clients.insert(c)
	s.accepted.Add(1)
	s.activeConns.Add(1)

	c.PostRead()
	s.postAccept()
}

// onReadComplete looks up the Connection under the client table's shared
// lock and delegates to its read completion handler. A miss is logged as a
// warning and dropped; the connection's own close path has already
// removed it.
func (s *Server) onReadComplete(ctx *reactor.OpContext) {
	defer reactor.ReleaseOpContext(ctx)
	c, ok := ctx.UserData.(*conn.Connection)
	if !ok || c == nil {
		return
	}
	if c.PendingClose() {
		// cancellation drained by the connection's own Close
		return
	}
	if _, found := s.clients.lookup(c.Fd()); !found {
		s.logger.Printf("client-not-found: read completion for fd %d has no client-table entry", c.Fd())
		return
	}
	c.OnReadRaw(ctx.Size, ctx.Err)
}

// onWriteComplete is the write-side mirror of onReadComplete.
func (s *Server) onWriteComplete(ctx *reactor.OpContext) {
	defer reactor.ReleaseOpContext(ctx)
	c, ok := ctx.UserData.(*conn.Connection)
	if !ok || c == nil {
		return
	}
	if c.PendingClose() {
		return
	}
	c.OnWriteRaw(ctx.Size, ctx.Err)
}

// Dispatch implements conn.Host: route the request, surface a 404/405
// through the error-handler pipeline on a routing miss, or invoke the
// matched handler with path parameters bound.
func (s *Server) Dispatch(req *httpwire.Request) *httpwire.Response {
	node, matched, params := s.tree.FindRouteWithParams(req.URI)
	if !matched && !node.IsStaticMount() {
		// A static mount matches any URI beneath its registration path;
		// every other partial match is a genuine routing miss.
		return s.ErrorResponse(404)
	}
	handler := node.HandlerFor(req.Method)
	if handler == nil {
		if !node.HasAnyHandler() {
			return s.ErrorResponse(404)
		}
		return s.ErrorResponse(405)
	}
	req.Params = params
	resp := httpwire.NewResponse(200)
	handler(req, resp)
	return resp
}

// ErrorResponse implements conn.Host: build the configured (or default)
// error-handler response for status.
func (s *Server) ErrorResponse(status int) *httpwire.Response {
	s.errMu.RLock()
	handler, ok := s.errHandlers[status]
	s.errMu.RUnlock()
	resp := httpwire.NewResponse(status)
	if !ok {
		handler = defaultErrorHandler
	}
	handler(status, resp)
	return resp
}

// Reactor implements conn.Host.
func (s *Server) Reactor() reactor.EventReactor { return s.rct }

// RemoveConnection implements conn.Host: delete fd from the client table.
func (s *Server) RemoveConnection(fd uintptr) {
	s.clients.remove(fd)
	s.activeConns.Add(-1)
	s.closedConns.Add(1)
}

// RecordClosed implements conn.Host: fold a closed connection's counters
// into the server-wide aggregate, exposed through Control.Stats().
func (s *Server) RecordClosed(st conn.Stats) {
	s.totalBytesIn.Add(st.BytesIn)
	s.totalBytesOut.Add(st.BytesOut)
	s.totalRequests.Add(st.Requests)
	if s.cfg.EnableMetrics {
		s.publishMetrics()
	}
}

// publishMetrics pushes the atomic counters into the control plane's
// metrics registry, so Stats() carries them under the metrics. prefix.
// Called on every connection close and on each heartbeat firing.
func (s *Server) publishMetrics() {
	s.control.SetMetric("active_connections", s.activeConns.Load())
	s.control.SetMetric("accepted_total", s.accepted.Load())
	s.control.SetMetric("closed_total", s.closedConns.Load())
	s.control.SetMetric("requests_total", s.totalRequests.Load())
	s.control.SetMetric("bytes_in_total", s.totalBytesIn.Load())
	s.control.SetMetric("bytes_out_total", s.totalBytesOut.Load())
}

// Stop flips the listening flag, cancels the heartbeat, closes the listen
// socket, closes every tracked connection, and releases the reactor.
func (s *Server) Stop() {
	if !s.listening.CompareAndSwap(true, false) {
		return
	}
	if s.heartbeat != nil {
		_ = s.scheduler.Cancel(s.heartbeat)
	}
	if s.listenSock != nil {
		_ = s.listenSock.Close()
	}
	s.clients.closeAll()
	if s.rct != nil {
		_ = s.rct.Close()
	}
	s.executor.Close()
	s.logger.Printf("stopped (accepted=%d closed=%d requests=%d)",
		s.accepted.Load(), s.closedConns.Load(), s.totalRequests.Load())
}

// Shutdown implements api.GracefulShutdown as an alias for Stop, for hosts
// that tear down a set of components through the shared contract.
func (s *Server) Shutdown() error {
	s.Stop()
	return nil
}

// startHeartbeat schedules a recurring stats log via api.Scheduler; each
// firing re-schedules the next one while the server is listening.
func (s *Server) startHeartbeat() {
	var tick func()
	tick = func() {
		if !s.listening.Load() {
			return
		}
		if s.cfg.EnableMetrics {
			s.publishMetrics()
		}
		s.logger.Printf("heartbeat: active=%d accepted=%d closed=%d requests=%d bytesIn=%d bytesOut=%d",
			s.activeConns.Load(), s.accepted.Load(), s.closedConns.Load(),
			s.totalRequests.Load(), s.totalBytesIn.Load(), s.totalBytesOut.Load())
		h, err := s.scheduler.Schedule(int64(s.cfg.HeartbeatInterval), tick)
		if err == nil {
			s.heartbeat = h
		}
	}
	h, err := s.scheduler.Schedule(int64(s.cfg.HeartbeatInterval), tick)
	if err == nil {
		s.heartbeat = h
	}
}

// registerMetricsProbes wires the server's atomic counters into the
// control adapter's debug-probe surface so they appear in Stats().
func (s *Server) registerMetricsProbes() {
	s.control.RegisterDebugProbe("server.active_connections", func() any { return s.activeConns.Load() })
	s.control.RegisterDebugProbe("server.accepted_total", func() any { return s.accepted.Load() })
	s.control.RegisterDebugProbe("server.closed_total", func() any { return s.closedConns.Load() })
	s.control.RegisterDebugProbe("server.requests_total", func() any { return s.totalRequests.Load() })
	s.control.RegisterDebugProbe("server.bytes_in_total", func() any { return s.totalBytesIn.Load() })
	s.control.RegisterDebugProbe("server.bytes_out_total", func() any { return s.totalBytesOut.Load() })
	s.control.RegisterDebugProbe("server.executor_workers", func() any { return s.executor.NumWorkers() })
	s.control.RegisterDebugProbe("server.metrics", func() any { return s.Metrics() })
	s.control.RegisterDebugProbe("server.info", func() any { return s.Info() })
}

// Metrics snapshots the server-wide traffic counters.
func (s *Server) Metrics() api.APIMetrics {
	return api.APIMetrics{
		ActiveConnections: s.activeConns.Load(),
		TotalRequests:     s.totalRequests.Load(),
		InboundTraffic:    s.totalBytesIn.Load(),
		OutboundTraffic:   s.totalBytesOut.Load(),
		StartedAt:         s.startedAt,
	}
}

// Info describes this server instance for external tooling.
func (s *Server) Info() api.ServiceInfo {
	return api.ServiceInfo{
		Name:      "hioload-httpd",
		Version:   "1.0.0",
		StartedAt: s.startedAt,
	}
}

// GetControl returns the server's api.Control surface (config/stats/debug).
func (s *Server) GetControl() api.Control { return s.control }

// GetBufferPool returns the server's NUMA-scoped api.BufferPool.
func (s *Server) GetBufferPool() api.BufferPool { return s.bufPool }

// GetActiveConnections reports the current number of accepted, not-yet-
// closed connections.
func (s *Server) GetActiveConnections() int64 { return s.activeConns.Load() }

// GetExecutor returns the server's application-level task executor, for
// hosts that want to offload handler-side work off the reactor goroutines.
func (s *Server) GetExecutor() api.Executor { return s.executor }

// GetAffinity returns the CPU/NUMA pinning surface, for hosts that pin
// their own goroutines alongside the reactor's pollers.
func (s *Server) GetAffinity() api.Affinity { return s.affinity }
