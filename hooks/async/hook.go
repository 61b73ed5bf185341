// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery:  100, // sample: ~every 100th cache hit
//	    MissEvery: 10,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	loader, _ := batchload.New(batchload.Options[image.Request, image.Image]{
//	    // ...
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/batchload"
)

// Hooks forwards events to inner on worker goroutines. Events that do not fit
// in the queue are dropped and counted.
type Hooks struct {
	inner   batchload.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ batchload.Hooks = (*Hooks)(nil)

func New(inner batchload.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns the number of events lost to a full queue or to Close.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(k string)               { h.try(func() { h.inner.CacheHit(k) }) }
func (h *Hooks) CacheMiss(k string)              { h.try(func() { h.inner.CacheMiss(k) }) }
func (h *Hooks) FetchSubmitted(k string)         { h.try(func() { h.inner.FetchSubmitted(k) }) }
func (h *Hooks) FetchAttached(k string, n int)   { h.try(func() { h.inner.FetchAttached(k, n) }) }
func (h *Hooks) FetchCanceled(k string)          { h.try(func() { h.inner.FetchCanceled(k) }) }
func (h *Hooks) FetchFailed(k string, err error) { h.try(func() { h.inner.FetchFailed(k, err) }) }
func (h *Hooks) BatchDelivered(b, c int, waited time.Duration) {
	h.try(func() { h.inner.BatchDelivered(b, c, waited) })
}
