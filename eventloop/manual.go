package eventloop

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/unkn0wn-root/batchload"
)

// Manual is an Executor driven by the caller. Nothing runs until Flush or
// Advance is called, and time only moves through Advance. Post may be called
// from other goroutines; Flush and Advance must not run concurrently.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func(context.Context)
	timers []*manualTimer
	seq    uint64
	ctx    context.Context
}

type manualTimer struct {
	timer
	at  time.Time
	seq uint64
	fn  func(context.Context)
}

var _ batchload.Executor = (*Manual)(nil)

// NewManual returns a Manual whose clock starts at start.
func NewManual(start time.Time) *Manual {
	m := &Manual{now: start}
	m.ctx = context.WithValue(context.Background(), ownerKey{}, m)
	return m
}

// Context returns the context tasks run with. Tests use it to call Loader
// methods as if they were running on the executor.
func (m *Manual) Context() context.Context { return m.ctx }

func (m *Manual) Owns(ctx context.Context) bool {
	owner, _ := ctx.Value(ownerKey{}).(*Manual)
	return owner == m
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Post(fn func(ctx context.Context)) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

func (m *Manual) AfterFunc(d time.Duration, fn func(ctx context.Context)) batchload.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Pending returns the number of queued tasks and armed timers.
func (m *Manual) Pending() (tasks, timers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		if t.state.Load() == timerPending {
			timers++
		}
	}
	return len(m.queue), timers
}

// Flush runs queued tasks, including those they post, until the queue is
// empty. It returns the number of tasks run.
func (m *Manual) Flush() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn(m.ctx)
		n++
	}
}

// Advance flushes the queue, then moves the clock forward by d, firing due
// timers in deadline order. The queue is flushed after every timer, so timers
// armed by a task can still fire within the same Advance.
func (m *Manual) Advance(d time.Duration) {
	m.Flush()

	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		if t.fire() {
			t.fn(m.ctx)
		}
		m.Flush()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// nextDue removes and returns the earliest timer due at or before target,
// moving the clock to its deadline.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.timers[:0]
	for _, t := range m.timers {
		if t.state.Load() == timerPending {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(m.timers); i++ {
		m.timers[i] = nil
	}
	m.timers = live

	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	if len(m.timers) == 0 || m.timers[0].at.After(target) {
		return nil
	}
	t := m.timers[0]
	m.timers = m.timers[1:]
	if t.at.After(m.now) {
		m.now = t.at
	}
	return t
}
