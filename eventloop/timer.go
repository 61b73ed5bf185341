package eventloop

import "sync/atomic"

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

// timer is shared by Loop and Manual. Whoever moves it out of the pending
// state first wins: either the task runs or Stop reports true, never both.
type timer struct {
	state atomic.Int32
	stop  func() // releases the underlying clock resource, may be nil
}

func (t *timer) fire() bool {
	return t.state.CompareAndSwap(timerPending, timerFired)
}

func (t *timer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	if t.stop != nil {
		t.stop()
	}
	return true
}
