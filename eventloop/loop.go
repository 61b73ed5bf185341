package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/batchload"
)

var (
	// ErrClosed is returned by Do once the loop has been closed.
	ErrClosed         = errors.New("eventloop: loop is closed")
	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("eventloop: loop is already running")
)

type ownerKey struct{}

// Loop runs posted tasks one at a time on the goroutine that called Run.
// Post and AfterFunc are safe from any goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func(context.Context)
	closed bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
}

var _ batchload.Executor = (*Loop)(nil)

// New returns an idle loop. Call Run to start executing tasks.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Owns reports whether ctx is the context of a task running on l.
func (l *Loop) Owns(ctx context.Context) bool {
	owner, _ := ctx.Value(ownerKey{}).(*Loop)
	return owner == l
}

// Post queues fn. Tasks posted after Close are dropped.
func (l *Loop) Post(fn func(ctx context.Context)) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc posts fn once d has elapsed. Stopping the returned timer
// prevents fn from running even if the task was already queued.
func (l *Loop) AfterFunc(d time.Duration, fn func(ctx context.Context)) batchload.Timer {
	t := &timer{}
	rt := time.AfterFunc(d, func() {
		l.Post(func(ctx context.Context) {
			if t.fire() {
				fn(ctx)
			}
		})
	})
	t.stop = func() { rt.Stop() }
	return t
}

// Run executes tasks until ctx ends or Close is called. It returns nil after
// Close and ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	taskCtx := context.WithValue(ctx, ownerKey{}, l)
	for {
		for _, fn := range l.take() {
			fn(taskCtx)
		}
		select {
		case <-l.wake:
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) take() []func(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.queue
	l.queue = nil
	return q
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(ctx context.Context)) error {
	finished := make(chan struct{})
	l.Post(func(tctx context.Context) {
		defer close(finished)
		fn(tctx)
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops Run and drops queued tasks. Safe to call multiple times.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	})
}
