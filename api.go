package batchload

import (
	"context"
	"time"
)

// KeyFunc computes the cache key of a request. Logically identical requests
// must produce identical keys; the key is the unit of deduplication.
type KeyFunc[R any] func(req R) string

// FetchFunc builds the transport operation for req. The returned Fetch is
// submitted to the Queue by the engine. onSuccess and onError may be called
// from any goroutine, at most one of them, at most once.
type FetchFunc[R, V any] func(req R, onSuccess func(V), onError func(error)) Fetch

// Fetch is one cancelable transport operation.
type Fetch interface {
	// Execute performs the work and reports through the callbacks the Fetch
	// was built with. It is called by the Queue, off the executor.
	Execute(ctx context.Context)
	// Cancel aborts the operation. A canceled Fetch must not report.
	Cancel()
}

// Queue accepts fetches for asynchronous execution. Submit must not block.
type Queue interface {
	Submit(f Fetch)
}

// Cache is the in-memory store consulted before any fetch is issued.
// It is only used from the engine's executor.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V)
	Remove(key string)
	// Resize sets a new capacity in the cache's own size unit and evicts
	// immediately if the current usage exceeds it.
	Resize(capacity int64)
}

// Executor is the single controlling context that owns all engine state.
type Executor interface {
	// Owns reports whether ctx was handed out by this executor to a task it runs.
	Owns(ctx context.Context) bool
	// Post queues fn to run on the executor.
	Post(fn func(ctx context.Context))
	// AfterFunc queues fn to run on the executor once d has elapsed.
	AfterFunc(d time.Duration, fn func(ctx context.Context)) Timer
}

// Timer is a pending AfterFunc task.
type Timer interface {
	// Stop prevents the task from running. It reports false if the task
	// already ran or was already stopped.
	Stop() bool
}

// Listener receives the outcome of a Load. All methods run on the executor.
type Listener[R, V any] interface {
	// OnCacheMiss is called synchronously from Load when the value was not
	// cached. Keep c to Cancel the load later.
	OnCacheMiss(c *Container[R, V])
	// OnSuccess is called with the loaded value available through c.Value.
	OnSuccess(c *Container[R, V], fromCache bool)
	// OnError is called with the error reported by the transport.
	OnError(err error)
}

// Loader deduplicates, caches and batches fetches of one payload type.
// All methods except Stats must be called on the Executor the Loader was
// built with; Load, Clear and IsCached verify it.
type Loader[R, V any] interface {
	Load(ctx context.Context, req R, l Listener[R, V]) error
	Cancel(c *Container[R, V])
	Clear(ctx context.Context, c *Container[R, V]) error
	Resize(capacity int64)
	IsCached(ctx context.Context, c *Container[R, V]) (bool, error)
	Stats() Stats
}

// Options configure a Loader. Everything except Name, BatchDelay, Logger
// and Hooks is required.
type Options[R, V any] struct {
	Name     string // used in logs and errors. e.g. "image", "profile"
	Executor Executor
	Queue    Queue
	Cache    Cache[V]
	Key      KeyFunc[R]
	Fetch    FetchFunc[R, V]

	BatchDelay time.Duration // 0 => 100ms
	Logger     Logger        // if nil, NopLogger is used
	Hooks      Hooks         // if nil, NopHooks is used
}

func New[R, V any](opts Options[R, V]) (Loader[R, V], error) {
	e, err := newEngine[R, V](opts)
	if err != nil {
		return nil, err
	}
	return e, nil
}
