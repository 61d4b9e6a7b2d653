package core

import (
	"bytes"
	"errors"
	"math"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/searchktools/reactor-http/core/http"
	"github.com/searchktools/reactor-http/core/poller"
)

type connState uint8

// Connection states
const (
	StateReadingHeaders connState = iota
	StateReadingBody
	StateDispatching
	StateWriting
	StateClosed
)

func (s connState) String() string {
	switch s {
	case StateReadingHeaders:
		return "reading-headers"
	case StateReadingBody:
		return "reading-body"
	case StateDispatching:
		return "dispatching"
	case StateWriting:
		return "writing"
	default:
		return "closed"
	}
}

// Connection is the state of one accepted socket. Only the worker holding mu
// advances it; a fired deadline takes mu too before shutting the socket down.
type Connection struct {
	mu sync.Mutex

	id    string
	fd    int
	gen   uint64 // bumped per accepted socket, lets stale timers spot reuse
	state connState

	readBuf  []byte
	buffered int
	headEnd  int // index just past the header terminator
	bodyLen  int

	request   *http.Request
	keepAlive bool
	status    int

	writeBuf []byte
	written  int

	guard *deadline
}

// Reset implements ConnectionPoolable interface
func (c *Connection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.id = ""
	c.fd = -1
	c.state = StateClosed
	c.readBuf = nil
	c.buffered = 0
	c.headEnd = 0
	c.bodyLen = 0
	c.request = nil
	c.keepAlive = false
	c.status = 0
	if cap(c.writeBuf) > maxRetainedWriteBuf {
		c.writeBuf = nil
	} else {
		c.writeBuf = c.writeBuf[:0]
	}
	c.written = 0
	c.guard = nil
}

// SetFD implements ConnectionPoolable interface
func (c *Connection) SetFD(fd int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fd = fd
	c.gen++
}

// armGuard starts the deadline for the step about to wait on I/O. On expiry
// the socket is shut down, which wakes the owning worker with an event it
// turns into a release.
func (e *Engine) armGuard(c *Connection, budget timeoutKind) {
	d := e.headerTimeout
	if budget == contentBudget {
		d = e.contentTimeout
	}

	gen := c.gen
	c.guard = armDeadline(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.gen != gen || c.fd < 0 {
			return
		}
		e.logger.Debug("connection deadline exceeded", "conn", c.id, "state", c.state.String())
		_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
	})
}

type timeoutKind uint8

const (
	headerBudget timeoutKind = iota
	contentBudget
)

// serve advances c after a readiness event and reports whether c was released.
func (e *Engine) serve(c *Connection) bool {
	if c.guard.Fired() {
		return e.release(c, errTimeout)
	}

	switch c.state {
	case StateReadingHeaders:
		return e.readHeaders(c)
	case StateReadingBody:
		return e.readBody(c)
	case StateWriting:
		return e.flush(c)
	default:
		return false
	}
}

// awaitHeaders moves c into ReadingHeaders with a fresh buffer window.
func (e *Engine) awaitHeaders(c *Connection) {
	c.state = StateReadingHeaders
	c.buffered = 0
	c.headEnd = 0
	c.bodyLen = 0
	c.request = nil
	c.status = 0

	// A body may have grown the buffer past the head limit.
	if size := e.headBufSize(); len(c.readBuf) > size {
		e.bytePool.Put(c.readBuf)
		c.readBuf = e.bytePool.Get(size)
	}
	e.armGuard(c, headerBudget)
}

// headBufSize is the buffer a connection starts each request head with.
func (e *Engine) headBufSize() int {
	return min(readBufSize, e.maxHeaderBytes)
}

func (e *Engine) readHeaders(c *Connection) bool {
	for {
		if c.buffered == len(c.readBuf) {
			if c.buffered >= e.maxHeaderBytes {
				return e.release(c, errHeaderTooLarge)
			}
			c.readBuf = e.bytePool.Grow(c.readBuf, c.buffered, min(2*len(c.readBuf), e.maxHeaderBytes))
		}

		n, err := readFD(c.fd, c.readBuf[c.buffered:])
		if err == unix.EAGAIN {
			return e.rearm(c, poller.EventRead)
		}
		if err != nil {
			return e.release(c, err)
		}
		if n == 0 {
			return e.release(c, errPeerClosed)
		}

		// The terminator may straddle the previous read.
		from := max(0, c.buffered-len(http.HeaderTerminator)+1)
		c.buffered += n

		if i := bytes.Index(c.readBuf[from:c.buffered], http.HeaderTerminator); i >= 0 {
			c.headEnd = from + i + len(http.HeaderTerminator)
			if !c.guard.Cancel() {
				return e.release(c, errTimeout)
			}
			return e.parse(c)
		}
	}
}

func (e *Engine) parse(c *Connection) bool {
	req, err := http.Parse(c.readBuf[:c.headEnd])
	if err != nil {
		e.logger.Debug("malformed request", "conn", c.id, "error", err)
	}
	c.request = req
	c.keepAlive = req.KeepAlive()

	length, ok, err := req.ContentLength()
	if err != nil {
		e.logger.Debug("rejecting request", "conn", c.id, "error", err)
		c.keepAlive = false
		return e.respond(c, http.NewStatus(400))
	}
	if !ok {
		return e.dispatch(c)
	}

	if length > math.MaxInt-c.headEnd {
		e.logger.Debug("rejecting request", "conn", c.id, "error", http.ErrBadContentLength)
		c.keepAlive = false
		return e.respond(c, http.NewStatus(400))
	}

	c.bodyLen = length
	if c.buffered-c.headEnd >= length {
		return e.finishBody(c)
	}

	c.state = StateReadingBody
	e.armGuard(c, contentBudget)
	return e.readBody(c)
}

func (e *Engine) readBody(c *Connection) bool {
	end := c.headEnd + c.bodyLen
	for c.buffered < end {
		// The buffer follows the bytes that arrive, never the declared length.
		if c.buffered == len(c.readBuf) {
			step := min(max(len(c.readBuf), readBufSize), end-c.buffered)
			c.readBuf = e.bytePool.Grow(c.readBuf, c.buffered, c.buffered+step)
		}

		n, err := readFD(c.fd, c.readBuf[c.buffered:min(end, len(c.readBuf))])
		if err == unix.EAGAIN {
			return e.rearm(c, poller.EventRead)
		}
		if err != nil {
			return e.release(c, err)
		}
		if n == 0 {
			return e.release(c, errPeerClosed)
		}
		c.buffered += n
	}

	if !c.guard.Cancel() {
		return e.release(c, errTimeout)
	}
	return e.finishBody(c)
}

// finishBody hands the declared body to the request; bytes past it are dropped.
func (e *Engine) finishBody(c *Connection) bool {
	c.request.Body = bytes.Clone(c.readBuf[c.headEnd : c.headEnd+c.bodyLen])
	c.request.HasBody = true
	return e.dispatch(c)
}

func (e *Engine) dispatch(c *Connection) bool {
	c.state = StateDispatching
	return e.respond(c, e.router.Dispatch(c.request))
}

func (e *Engine) respond(c *Connection, res *http.Response) bool {
	if !http.KnownStatus(res.Code) {
		e.logger.Error("handler returned unknown status code", "code", res.Code, "path", c.request.Path)
		res = http.NewStatus(500)
	}
	res.Commit()

	c.status = res.Code
	c.writeBuf = res.AppendTo(c.writeBuf[:0])
	c.written = 0
	c.state = StateWriting
	e.armGuard(c, contentBudget)
	return e.flush(c)
}

func (e *Engine) flush(c *Connection) bool {
	for c.written < len(c.writeBuf) {
		n, err := writeFD(c.fd, c.writeBuf[c.written:])
		if err == unix.EAGAIN {
			return e.rearm(c, poller.EventWrite)
		}
		if err != nil {
			return e.release(c, err)
		}
		c.written += n
	}

	if !c.guard.Cancel() {
		return e.release(c, errTimeout)
	}

	e.logger.Debug("request served",
		"conn", c.id,
		"method", c.request.Method,
		"path", c.request.Path,
		"status", c.status)

	if !c.keepAlive {
		return e.release(c, nil)
	}
	e.awaitHeaders(c)
	return e.rearm(c, poller.EventRead)
}

// rearm waits for the next readiness event of c.
func (e *Engine) rearm(c *Connection, ev poller.Event) bool {
	if err := e.poller.Modify(c.fd, ev); err != nil {
		return e.release(c, err)
	}
	return false
}

// release tears c down. The caller holds c.mu and hands c back to the pool
// once it has unlocked.
func (e *Engine) release(c *Connection, cause error) bool {
	c.guard.Cancel()

	if cause != nil && !errors.Is(cause, errPeerClosed) {
		e.logger.Debug("closing connection", "conn", c.id, "state", c.state.String(), "error", cause)
	}

	e.connMu.Lock()
	delete(e.connections, c.fd)
	e.connMu.Unlock()

	_ = e.poller.Remove(c.fd)
	_ = unix.Close(c.fd)
	c.fd = -1

	if c.readBuf != nil {
		e.bytePool.Put(c.readBuf)
		c.readBuf = nil
	}
	c.state = StateClosed
	return true
}

func readFD(fd int, b []byte) (int, error) {
	for {
		n, err := unix.Read(fd, b)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func writeFD(fd int, b []byte) (int, error) {
	for {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}
