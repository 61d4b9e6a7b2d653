package core

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/searchktools/reactor-http/core/http"
	"github.com/searchktools/reactor-http/core/middleware"
	"github.com/searchktools/reactor-http/core/observability"
	"github.com/searchktools/reactor-http/core/poller"
	"github.com/searchktools/reactor-http/core/pools"
	"github.com/searchktools/reactor-http/core/router"
	"github.com/searchktools/reactor-http/logging"
)

// Engine is an HTTP/1.1 server driving one shared poller from a fixed number
// of worker goroutines, each locked to its own OS thread.
type Engine struct {
	router     *router.Router
	middleware *middleware.Pipeline
	monitor    *observability.Monitor
	poller     poller.Poller
	logger     *slog.Logger

	listener *net.TCPListener
	lnFile   *os.File
	lfd      int

	connections map[int]*Connection
	connMu      sync.RWMutex

	workers        int
	headerTimeout  time.Duration
	contentTimeout time.Duration
	maxHeaderBytes int

	bytePool       *pools.BytePool
	connectionPool *pools.ConnectionPool[*Connection]

	running atomic.Bool
	stopped atomic.Bool
}

// NewEngine creates a new engine instance
func NewEngine() *Engine {
	return &Engine{
		router:         router.New(),
		middleware:     middleware.NewPipeline(),
		logger:         logging.Nop(),
		lfd:            -1,
		connections:    make(map[int]*Connection, 1024),
		workers:        DefaultWorkers,
		headerTimeout:  DefaultHeaderTimeout,
		contentTimeout: DefaultContentTimeout,
		maxHeaderBytes: DefaultMaxHeaderBytes,
		bytePool:       pools.NewBytePool(),
		connectionPool: pools.NewConnectionPool(func() *Connection {
			return &Connection{fd: -1, state: StateClosed}
		}),
	}
}

// SetLogger sets the logger for the engine and its router.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.Nop()
	}
	e.logger = logger
	e.router.SetLogger(logger)
}

// Workers sets how many goroutines service the poller; values below 1 mean 1.
func (e *Engine) Workers(n int) *Engine {
	e.workers = max(n, 1)
	return e
}

// Timeouts sets the header and content budgets. Zero disables a budget.
func (e *Engine) Timeouts(header, content time.Duration) *Engine {
	e.headerTimeout = header
	e.contentTimeout = content
	return e
}

// MaxHeaderBytes bounds the request line plus headers of one request.
func (e *Engine) MaxHeaderBytes(n int) *Engine {
	if n > 0 {
		e.maxHeaderBytes = n
	}
	return e
}

// Router returns the routing table.
func (e *Engine) Router() *router.Router {
	return e.router
}

// Monitor records per-route timings into m for routes registered after the
// call. Nil turns recording off for later routes.
func (e *Engine) Monitor(m *observability.Monitor) *Engine {
	e.monitor = m
	return e
}

// Use appends middlewares. They wrap the handlers of routes registered after
// the call.
func (e *Engine) Use(mws ...middleware.Middleware) *Engine {
	e.middleware.Use(mws...)
	return e
}

// Route binds handler to method on the path pattern, a regular expression
// that must match the whole path. It panics on an invalid pattern or once the
// engine runs.
func (e *Engine) Route(pattern, method string, handler http.HandlerFunc) {
	h := e.middleware.Then(handler)
	if e.monitor != nil {
		h = e.monitor.Wrap(method+" "+pattern, h)
	}
	e.router.MustAdd(pattern, method, h)
}

// GET registers a GET route
func (e *Engine) GET(pattern string, handler http.HandlerFunc) {
	e.Route(pattern, "GET", handler)
}

// POST registers a POST route
func (e *Engine) POST(pattern string, handler http.HandlerFunc) {
	e.Route(pattern, "POST", handler)
}

// PUT registers a PUT route
func (e *Engine) PUT(pattern string, handler http.HandlerFunc) {
	e.Route(pattern, "PUT", handler)
}

// DELETE registers a DELETE route
func (e *Engine) DELETE(pattern string, handler http.HandlerFunc) {
	e.Route(pattern, "DELETE", handler)
}

// PATCH registers a PATCH route
func (e *Engine) PATCH(pattern string, handler http.HandlerFunc) {
	e.Route(pattern, "PATCH", handler)
}

// HEAD registers a HEAD route
func (e *Engine) HEAD(pattern string, handler http.HandlerFunc) {
	e.Route(pattern, "HEAD", handler)
}

// OPTIONS registers an OPTIONS route
func (e *Engine) OPTIONS(pattern string, handler http.HandlerFunc) {
	e.Route(pattern, "OPTIONS", handler)
}

// Listen binds 0.0.0.0:port. Port 0 picks a free port, see Addr.
func (e *Engine) Listen(port int) error {
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}

	lnFile, err := ln.File()
	if err != nil {
		ln.Close()
		return fmt.Errorf("listener descriptor: %w", err)
	}
	lfd := int(lnFile.Fd())

	if err := unix.SetNonblock(lfd, true); err != nil {
		lnFile.Close()
		ln.Close()
		return fmt.Errorf("listener non-blocking mode: %w", err)
	}

	e.listener = ln
	e.lnFile = lnFile
	e.lfd = lfd
	return nil
}

// Addr returns the bound address, nil before Listen.
func (e *Engine) Addr() *net.TCPAddr {
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr().(*net.TCPAddr)
}

// Run freezes the routing table and serves until Stop. The calling goroutine
// is one of the workers. Live connections are closed before Run returns.
func (e *Engine) Run() error {
	if e.listener == nil {
		return ErrNotListening
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	e.router.Freeze()
	for _, pattern := range e.router.Patterns() {
		e.logger.Info("route", "pattern", pattern)
	}

	p, err := poller.NewPoller()
	if err != nil {
		return fmt.Errorf("create poller: %w", err)
	}
	e.poller = p
	defer e.closeListener()

	if err := e.poller.Add(e.lfd, poller.EventRead); err != nil {
		e.poller.Close()
		return fmt.Errorf("watch listener: %w", err)
	}

	e.logger.Info("server running",
		"addr", e.Addr().String(),
		"workers", e.workers,
		"header_timeout", e.headerTimeout,
		"content_timeout", e.contentTimeout)

	var g errgroup.Group
	for i := 1; i < e.workers; i++ {
		g.Go(e.loop)
	}
	err = e.loop()
	if gerr := g.Wait(); err == nil {
		err = gerr
	}

	e.closeConnections()
	e.poller.Close()
	e.logger.Info("server stopped")
	return err
}

// Stop signals the workers to return. In-flight requests are not drained.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// loop is one worker: wait on the shared poller and handle what is ready.
func (e *Engine) loop() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	fds := make([]int, 128)
	for !e.stopped.Load() {
		n, err := e.poller.Wait(fds, pollInterval)
		if err != nil {
			e.logger.Error("poller wait failed", "error", err)
			e.Stop()
			return fmt.Errorf("poller wait: %w", err)
		}

		for _, fd := range fds[:n] {
			if fd == e.lfd {
				e.accept()
			} else {
				e.handleEvent(fd)
			}
		}
	}
	return nil
}

// accept takes one pending socket and re-arms the listener before setting the
// socket up, so other workers can accept meanwhile.
func (e *Engine) accept() {
	nfd, _, err := unix.Accept(e.lfd)

	if merr := e.poller.Modify(e.lfd, poller.EventRead); merr != nil && !e.stopped.Load() {
		e.logger.Error("re-arm listener failed", "error", merr)
	}

	if err != nil {
		if err != unix.EAGAIN && err != unix.EINTR && err != unix.ECONNABORTED {
			e.logger.Warn("accept failed", "error", err)
		}
		return
	}

	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return
	}
	unix.CloseOnExec(nfd)

	// TCP_NODELAY: Disable Nagle's algorithm
	_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	e.open(nfd)
}

// open starts the state machine of a freshly accepted socket.
func (e *Engine) open(fd int) {
	c := e.connectionPool.Get(fd)

	c.mu.Lock()
	c.id = uuid.NewString()
	c.readBuf = e.bytePool.Get(e.headBufSize())

	e.connMu.Lock()
	e.connections[fd] = c
	e.connMu.Unlock()

	e.logger.Debug("connection accepted", "conn", c.id, "fd", fd)

	e.awaitHeaders(c)
	released := false
	if err := e.poller.Add(fd, poller.EventRead); err != nil {
		released = e.release(c, err)
	}
	c.mu.Unlock()

	if released {
		e.connectionPool.Put(c)
	}
}

// handleEvent advances the connection that owns fd.
func (e *Engine) handleEvent(fd int) {
	e.connMu.RLock()
	c, ok := e.connections[fd]
	e.connMu.RUnlock()
	if !ok {
		return
	}

	c.mu.Lock()
	released := c.fd == fd && e.serve(c)
	c.mu.Unlock()

	if released {
		e.connectionPool.Put(c)
	}
}

func (e *Engine) closeConnections() {
	e.connMu.RLock()
	live := make([]*Connection, 0, len(e.connections))
	for _, c := range e.connections {
		live = append(live, c)
	}
	e.connMu.RUnlock()

	for _, c := range live {
		c.mu.Lock()
		released := c.fd >= 0 && e.release(c, errShutdown)
		c.mu.Unlock()
		if released {
			e.connectionPool.Put(c)
		}
	}
}

func (e *Engine) closeListener() {
	if err := errors.Join(e.lnFile.Close(), e.listener.Close()); err != nil {
		e.logger.Debug("closing listener", "error", err)
	}
}
