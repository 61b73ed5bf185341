// Package batchload deduplicates, caches and batches asynchronous fetches.
//
// Many callers asking for the same resource at once share a single
// underlying fetch. The result is written to a bounded in-memory cache and
// fanned out to every caller still interested. Any caller can withdraw
// without disturbing the others; when the last one leaves, the fetch itself
// is canceled.
//
// Components:
//   - Loader[R, V]: the engine, built with New.
//   - Executor: the single context that owns all engine state. Every Loader
//     method except Stats must run on it (see package eventloop).
//   - Queue / Fetch: the transport. transport/queue runs fetches on a
//     bounded worker pool; transport/httpfetch and transport/redisfetch
//     perform them.
//   - Cache[V]: the memory cache consulted before any fetch (provider/lru,
//     provider/ristretto, provider/bigcache).
//   - Listener[R, V] and Container[R, V]: one caller's interest in one load.
//
// Delivery is batched: completions are parked and delivered together once
// BatchDelay has passed since the first completion of the window.
//
// Typical use on the executor:
//
//	err := loader.Load(ctx, req, batchload.ListenerFuncs[Req, Val]{
//	    CacheMiss: func(c *batchload.Container[Req, Val]) { pending = c },
//	    Success:   func(c *batchload.Container[Req, Val], fromCache bool) { v, _ := c.Value(); show(v) },
//	    Error:     func(err error) { showError(err) },
//	})
//	// later, if the caller goes away:
//	loader.Cancel(pending)
package batchload
