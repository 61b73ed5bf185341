// Package queue runs batchload fetches on a bounded set of goroutines.
//
// Submit never blocks: fetches wait in an unbounded FIFO until a dispatcher
// admits them through an optional rate limiter and hands them to a worker.
// Fetches canceled while queued cost nothing when their turn comes, since
// Execute returns immediately for a canceled Fetch.
package queue

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/unkn0wn-root/batchload"
)

const defaultWorkers = 4

// ErrClosed is the cancellation cause seen by fetches that run after Close.
var ErrClosed = errors.New("queue: pool is closed")

type Config struct {
	Workers       int     // concurrent fetches; 0 => 4
	RatePerSecond float64 // fetch starts per second; 0 => unlimited
	Burst         int     // 0 => max(1, Workers) when rate limited
	Logger        batchload.Logger
}

type Pool struct {
	mu     sync.Mutex
	queue  []batchload.Fetch
	closed bool
	wake   chan struct{}

	ctx     context.Context
	cancel  context.CancelCauseFunc
	limiter *rate.Limiter
	group   *errgroup.Group
	done    chan struct{}
	log     batchload.Logger
}

var _ batchload.Queue = (*Pool)(nil)

// New starts the dispatcher. Call Close to stop it.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		if burst <= 0 {
			burst = workers
		}
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	g := &errgroup.Group{}
	g.SetLimit(workers)

	p := &Pool{
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		limiter: rate.NewLimiter(limit, burst),
		group:   g,
		done:    make(chan struct{}),
		log:     cfg.Logger,
	}
	if p.log == nil {
		p.log = batchload.NopLogger{}
	}
	go p.dispatch()
	return p
}

// Submit queues f. After Close, f is executed right away with a canceled
// context so it still reports an outcome.
func (p *Pool) Submit(f batchload.Fetch) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("fetch submitted to closed pool", nil)
		go f.Execute(p.ctx)
		return
	}
	p.queue = append(p.queue, f)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of fetches waiting for a worker.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) dispatch() {
	defer close(p.done)
	for {
		f, ok := p.next()
		if !ok {
			return
		}
		if err := p.limiter.Wait(p.ctx); err != nil {
			// closed while waiting for a token
			f.Execute(p.ctx)
			continue
		}
		p.group.Go(func() error {
			f.Execute(p.ctx)
			return nil
		})
	}
}

// next blocks until a fetch is queued or the pool is closed. Once closed it
// keeps returning queued fetches until the queue is drained.
func (p *Pool) next() (batchload.Fetch, bool) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			f := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return f, true
		}
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-p.wake:
		case <-p.ctx.Done():
		}
	}
}

// Close cancels running fetches, runs the queued ones with a canceled
// context and waits for every worker to return or ctx to end.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel(ErrClosed)

	finished := make(chan struct{})
	go func() {
		<-p.done
		_ = p.group.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
