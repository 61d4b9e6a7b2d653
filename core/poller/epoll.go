//go:build linux

package poller

import (
	"golang.org/x/sys/unix"
)

// EpollPoller is an epoll-based I/O multiplexer
type EpollPoller struct {
	epfd int
}

// NewPoller creates a new Poller (Linux)
func NewPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &EpollPoller{epfd: epfd}, nil
}

func epollEvents(ev Event) uint32 {
	// EPOLLRDHUP reports peer shutdown, EPOLLONESHOT disarms after delivery.
	events := uint32(unix.EPOLLRDHUP | unix.EPOLLONESHOT)
	if ev&EventRead != 0 {
		events |= unix.EPOLLIN
	}
	if ev&EventWrite != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// Add adds a file descriptor to the watch list
func (p *EpollPoller) Add(fd int, ev Event) error {
	e := unix.EpollEvent{Events: epollEvents(ev), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &e)
}

// Modify re-arms a file descriptor
func (p *EpollPoller) Modify(fd int, ev Event) error {
	e := unix.EpollEvent{Events: epollEvents(ev), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &e)
}

// Remove removes a file descriptor from the watch list
func (p *EpollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait waits for I/O events
func (p *EpollPoller) Wait(fds []int, timeout int) (int, error) {
	var events [maxEvents]unix.EpollEvent
	size := min(len(fds), maxEvents)
	if size == 0 {
		return 0, nil
	}

	n, err := unix.EpollWait(p.epfd, events[:size], timeout)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		fds[i] = int(events[i].Fd)
	}
	return n, nil
}

// Close closes the Poller
func (p *EpollPoller) Close() error {
	return unix.Close(p.epfd)
}
