package batchload

import "sync/atomic"

// Stats is a snapshot of a Loader's counters.
type Stats struct {
	Hits       uint64 // loads served from the cache
	Misses     uint64 // loads that created a tracked container
	Fetches    uint64 // underlying fetches submitted
	Attached   uint64 // loads that joined an existing fetch
	Canceled   uint64 // underlying fetches canceled because every waiter left
	Failures   uint64 // fetches that reported an error
	Batches    uint64 // delivery passes
	Deliveries uint64 // containers notified by delivery passes
}

type counters struct {
	hits, misses, fetches, attached, canceled, failures, batches, deliveries atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Fetches:    c.fetches.Load(),
		Attached:   c.attached.Load(),
		Canceled:   c.canceled.Load(),
		Failures:   c.failures.Load(),
		Batches:    c.batches.Load(),
		Deliveries: c.deliveries.Load(),
	}
}
