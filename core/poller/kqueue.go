//go:build darwin || freebsd

package poller

import (
	"golang.org/x/sys/unix"
)

// KqueuePoller is a kqueue-based I/O multiplexer
type KqueuePoller struct {
	kqfd int
}

// NewPoller creates a new Poller (BSD/macOS)
func NewPoller() (Poller, error) {
	kqfd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kqfd)
	return &KqueuePoller{kqfd: kqfd}, nil
}

func (p *KqueuePoller) arm(fd int, ev Event) error {
	changes := make([]unix.Kevent_t, 0, 2)
	if ev&EventRead != 0 {
		var k unix.Kevent_t
		unix.SetKevent(&k, fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT)
		changes = append(changes, k)
	}
	if ev&EventWrite != 0 {
		var k unix.Kevent_t
		unix.SetKevent(&k, fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT)
		changes = append(changes, k)
	}
	_, err := unix.Kevent(p.kqfd, changes, nil, nil)
	return err
}

// Add adds a file descriptor to the watch list
func (p *KqueuePoller) Add(fd int, ev Event) error {
	return p.arm(fd, ev)
}

// Modify re-arms a file descriptor; fired one-shot filters are already gone
func (p *KqueuePoller) Modify(fd int, ev Event) error {
	return p.arm(fd, ev)
}

// Remove removes a file descriptor from the watch list
func (p *KqueuePoller) Remove(fd int) error {
	var rd, wr unix.Kevent_t
	unix.SetKevent(&rd, fd, unix.EVFILT_READ, unix.EV_DELETE)
	unix.SetKevent(&wr, fd, unix.EVFILT_WRITE, unix.EV_DELETE)

	// Filters that already fired are gone, so ENOENT is expected.
	_, err := unix.Kevent(p.kqfd, []unix.Kevent_t{rd}, nil, nil)
	if err != nil && err != unix.ENOENT {
		return err
	}
	_, err = unix.Kevent(p.kqfd, []unix.Kevent_t{wr}, nil, nil)
	if err != nil && err != unix.ENOENT {
		return err
	}
	return nil
}

// Wait waits for I/O events
func (p *KqueuePoller) Wait(fds []int, timeout int) (int, error) {
	var events [maxEvents]unix.Kevent_t
	size := min(len(fds), maxEvents)
	if size == 0 {
		return 0, nil
	}

	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout) * 1e6)
		ts = &t
	}

	n, err := unix.Kevent(p.kqfd, nil, events[:size], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		fds[i] = int(events[i].Ident)
	}
	return n, nil
}

// Close closes the Poller
func (p *KqueuePoller) Close() error {
	return unix.Close(p.kqfd)
}
