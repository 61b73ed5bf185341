// Package eventloop provides executors for batchload: a goroutine-driven
// serial event loop for production use and a manually driven executor with
// a fake clock for deterministic tests.
//
// Every task runs with a context that carries the identity of the executor
// that runs it, which is what Executor.Owns checks:
//
//	loop := eventloop.New()
//	go loop.Run(ctx)
//	loop.Post(func(ctx context.Context) {
//	    _ = loader.Load(ctx, req, listener) // ctx is owned by loop
//	})
package eventloop
