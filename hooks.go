package batchload

import "time"

// Hooks lightweight callbacks for high-signal engine events.
// Implementations MUST be cheap and non-blocking.
// The engine calls them from its executor on hot paths.
type Hooks interface {
	// Load was served from the memory cache.
	CacheHit(key string)

	// Load missed the memory cache and a tracked container was created.
	CacheMiss(key string)

	// A new underlying fetch was handed to the queue.
	FetchSubmitted(key string)

	// A container joined a fetch that was already in flight or awaiting delivery.
	// waiters is the number of containers attached after the join.
	FetchAttached(key string, waiters int)

	// The last waiter left an in-flight fetch and the fetch was canceled.
	FetchCanceled(key string)

	// The transport reported an error for a fetch.
	FetchFailed(key string, err error)

	// One delivery pass finished.
	// batches is the number of fetches delivered, containers the number of listeners notified.
	BatchDelivered(batches, containers int, waited time.Duration)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string)                        {}
func (NopHooks) CacheMiss(string)                       {}
func (NopHooks) FetchSubmitted(string)                  {}
func (NopHooks) FetchAttached(string, int)              {}
func (NopHooks) FetchCanceled(string)                   {}
func (NopHooks) FetchFailed(string, error)              {}
func (NopHooks) BatchDelivered(int, int, time.Duration) {}
