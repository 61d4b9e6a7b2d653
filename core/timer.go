package core

import (
	"sync/atomic"
	"time"
)

type timerState int32

const (
	timerArmed timerState = iota
	timerCancelled
	timerFired
)

// deadline is a one-shot timeout guarding a single I/O step. Whichever of
// Cancel and expiry flips the state first wins; the other becomes a no-op.
// A nil deadline is a disabled guard.
type deadline struct {
	state atomic.Int32
	timer *time.Timer
}

// armDeadline runs onExpire after d unless cancelled first. d <= 0 disables
// the guard and returns nil.
func armDeadline(d time.Duration, onExpire func()) *deadline {
	if d <= 0 {
		return nil
	}
	dl := &deadline{}
	dl.timer = time.AfterFunc(d, func() {
		if dl.state.CompareAndSwap(int32(timerArmed), int32(timerFired)) {
			onExpire()
		}
	})
	return dl
}

// Cancel stops the guard and reports whether the guarded step may go on,
// i.e. the deadline had not fired.
func (dl *deadline) Cancel() bool {
	if dl == nil {
		return true
	}
	if dl.state.CompareAndSwap(int32(timerArmed), int32(timerCancelled)) {
		dl.timer.Stop()
		return true
	}
	return timerState(dl.state.Load()) == timerCancelled
}

// Fired reports whether the deadline expired.
func (dl *deadline) Fired() bool {
	return dl != nil && timerState(dl.state.Load()) == timerFired
}
