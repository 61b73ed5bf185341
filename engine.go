package batchload

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errNilFailure = errors.New("batchload: fetch reported failure without an error")

type engine[R, V any] struct {
	name     string
	exec     Executor
	queue    Queue
	cache    Cache[V]
	keyOf    KeyFunc[R]
	fetchFor FetchFunc[R, V]
	delay    time.Duration
	log      Logger
	hooks    Hooks

	// owned by exec
	inFlight map[string]*batchedFetch[R, V]
	pending  map[string]*batchedFetch[R, V]
	order    []*batchedFetch[R, V] // pending records in completion order
	timer    Timer
	window   uint64 // bumped whenever the timer is armed
	armedAt  time.Time

	stats counters
}

func newEngine[R, V any](opts Options[R, V]) (*engine[R, V], error) {
	if opts.Executor == nil {
		return nil, fmt.Errorf("batchload: executor is required")
	}
	if opts.Queue == nil {
		return nil, fmt.Errorf("batchload: queue is required")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("batchload: cache is required")
	}
	if opts.Key == nil {
		return nil, fmt.Errorf("batchload: key func is required")
	}
	if opts.Fetch == nil {
		return nil, fmt.Errorf("batchload: fetch func is required")
	}
	if opts.BatchDelay < 0 {
		return nil, fmt.Errorf("batchload: negative batch delay %s", opts.BatchDelay)
	}

	e := &engine[R, V]{
		name:     opts.Name,
		exec:     opts.Executor,
		queue:    opts.Queue,
		cache:    opts.Cache,
		keyOf:    opts.Key,
		fetchFor: opts.Fetch,
		inFlight: make(map[string]*batchedFetch[R, V]),
		pending:  make(map[string]*batchedFetch[R, V]),
	}
	e.delay = coalesce[time.Duration](opts.BatchDelay, defaultBatchDelay)
	e.log = coalesce[Logger](opts.Logger, NopLogger{})
	e.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return e, nil
}

func (e *engine[R, V]) checkContext(ctx context.Context, op string) error {
	if ctx == nil || !e.exec.Owns(ctx) {
		return &WrongContextError{Op: op, Loader: e.name}
	}
	return nil
}

func (e *engine[R, V]) Load(ctx context.Context, req R, l Listener[R, V]) error {
	if err := e.checkContext(ctx, "Load"); err != nil {
		return err
	}
	if l == nil {
		return nil
	}

	key := e.keyOf(req)
	if v, ok := e.cache.Get(key); ok {
		e.stats.hits.Add(1)
		e.hooks.CacheHit(key)
		l.OnSuccess(cached[R, V](req, v), true)
		return nil
	}

	c := newContainer[R, V](e, key, req, l)
	e.stats.misses.Add(1)
	e.hooks.CacheMiss(key)

	// The caller may show a placeholder and keep c for Cancel.
	l.OnCacheMiss(c)
	if !c.Active() {
		// canceled from inside OnCacheMiss
		return nil
	}

	if b, ok := e.inFlight[key]; ok {
		e.attach(b, c)
		return nil
	}
	if b, ok := e.pending[key]; ok {
		// completed but not delivered yet (failure, or evicted right away)
		e.attach(b, c)
		return nil
	}

	b := newBatchedFetch[R, V](key, c)
	b.fetch = e.fetchFor(req,
		func(v V) { e.exec.Post(func(context.Context) { e.onFetched(b, v) }) },
		func(err error) { e.exec.Post(func(context.Context) { e.onFailed(b, err) }) },
	)
	e.inFlight[key] = b
	e.stats.fetches.Add(1)
	e.hooks.FetchSubmitted(key)
	e.log.Debug("fetch submitted", Fields{"loader": e.name, "key": key})
	e.queue.Submit(b.fetch)
	return nil
}

func (e *engine[R, V]) attach(b *batchedFetch[R, V], c *Container[R, V]) {
	n := b.attach(c)
	e.stats.attached.Add(1)
	e.hooks.FetchAttached(b.key, n)
	e.log.Debug("joined fetch", Fields{"loader": e.name, "key": b.key, "waiters": n})
}

func (e *engine[R, V]) Cancel(c *Container[R, V]) {
	if c == nil || c.owner != any(e) || c.release() == nil {
		return
	}

	if b, ok := e.inFlight[c.key]; ok && b.detach(c) {
		if b.empty() {
			delete(e.inFlight, c.key)
			b.fetch.Cancel()
			e.stats.canceled.Add(1)
			e.hooks.FetchCanceled(c.key)
			e.log.Debug("fetch canceled (no waiters left)", Fields{"loader": e.name, "key": c.key})
		}
		return
	}

	if b, ok := e.pending[c.key]; ok && b.detach(c) && b.empty() {
		// result already computed; nobody is left to notify
		e.dropPending(b)
	}
}

func (e *engine[R, V]) Clear(ctx context.Context, c *Container[R, V]) error {
	if err := e.checkContext(ctx, "Clear"); err != nil {
		return err
	}
	e.Cancel(c)
	if c == nil || c.key == "" {
		return nil
	}
	if _, ok := e.cache.Get(c.key); ok {
		e.cache.Remove(c.key)
		e.log.Debug("cache entry cleared", Fields{"loader": e.name, "key": c.key})
	}
	return nil
}

func (e *engine[R, V]) Resize(capacity int64) {
	e.cache.Resize(capacity)
	e.log.Debug("cache resized", Fields{"loader": e.name, "capacity": capacity})
}

func (e *engine[R, V]) IsCached(ctx context.Context, c *Container[R, V]) (bool, error) {
	if err := e.checkContext(ctx, "IsCached"); err != nil {
		return false, err
	}
	if c == nil || c.key == "" {
		return false, nil
	}
	_, ok := e.cache.Get(c.key)
	return ok, nil
}

func (e *engine[R, V]) Stats() Stats { return e.stats.snapshot() }

// onFetched runs on the executor once the transport reports a value.
func (e *engine[R, V]) onFetched(b *batchedFetch[R, V], v V) {
	if e.inFlight[b.key] != b || !b.succeed(v) {
		// canceled or superseded by a newer cycle
		return
	}
	e.cache.Put(b.key, v)
	delete(e.inFlight, b.key)
	e.batch(b)
}

func (e *engine[R, V]) onFailed(b *batchedFetch[R, V], err error) {
	if err == nil {
		err = errNilFailure
	}
	if e.inFlight[b.key] != b || !b.fail(err) {
		return
	}
	delete(e.inFlight, b.key)
	e.stats.failures.Add(1)
	e.hooks.FetchFailed(b.key, err)
	e.log.Warn("fetch failed", Fields{"loader": e.name, "key": b.key, "err": err})
	e.batch(b)
}

// batch parks b for delivery and arms the delivery timer if this is the
// first completion of the window.
func (e *engine[R, V]) batch(b *batchedFetch[R, V]) {
	e.pending[b.key] = b
	e.order = append(e.order, b)
	if e.timer != nil {
		return
	}
	e.window++
	window := e.window
	e.timer = e.exec.AfterFunc(e.delay, func(context.Context) {
		// a stopped timer may already have been queued
		if e.timer != nil && e.window == window {
			e.deliver()
		}
	})
	e.armedAt = time.Now()
}

func (e *engine[R, V]) dropPending(b *batchedFetch[R, V]) {
	delete(e.pending, b.key)
	for i, p := range e.order {
		if p == b {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if len(e.pending) == 0 && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.log.Debug("pending result dropped (no waiters left)", Fields{"loader": e.name, "key": b.key})
}

// deliver closes the window before running any listener: the table and the
// timer are reset first, so completions and loads triggered by listeners
// start a new window.
func (e *engine[R, V]) deliver() {
	batch := e.order
	waited := time.Since(e.armedAt)
	e.order = nil
	e.pending = make(map[string]*batchedFetch[R, V])
	e.timer = nil

	notified := 0
	for _, b := range batch {
		notified += b.deliver()
	}

	e.stats.batches.Add(1)
	e.stats.deliveries.Add(uint64(notified))
	e.hooks.BatchDelivered(len(batch), notified, waited)
	e.log.Debug("batch delivered", Fields{"loader": e.name, "fetches": len(batch), "containers": notified})
}
