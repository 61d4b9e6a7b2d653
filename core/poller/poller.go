// Package poller wraps the OS readiness multiplexer (epoll, kqueue).
//
// Every registration is one-shot: after an event for a descriptor is
// delivered to one Wait caller, the descriptor stays silent until it is
// re-armed with Modify. That lets several goroutines call Wait on the same
// Poller while each descriptor is handled by exactly one of them at a time.
package poller

// Event selects the readiness a descriptor is armed for.
type Event uint8

const (
	EventRead Event = 1 << iota
	EventWrite
)

// maxEvents bounds how many ready descriptors one Wait call returns.
const maxEvents = 128

// Poller is the I/O multiplexing interface
type Poller interface {
	// Add registers fd armed for ev.
	Add(fd int, ev Event) error
	// Modify re-arms fd for ev after an event was delivered.
	Modify(fd int, ev Event) error
	Remove(fd int) error
	// Wait fills fds with ready descriptors and returns how many there are.
	// timeout is in milliseconds, negative blocks.
	Wait(fds []int, timeout int) (int, error)
	Close() error
}
