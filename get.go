package batchload

import "context"

type result[V any] struct {
	v         V
	fromCache bool
	err       error
}

// Get loads req through l from outside the executor and waits for the
// outcome. If ctx ends first the load is canceled and ctx.Err() returned;
// other waiters on the same fetch are not affected.
func Get[R, V any](ctx context.Context, exec Executor, l Loader[R, V], req R) (V, bool, error) {
	done := make(chan result[V], 1)
	var c *Container[R, V] // only touched on the executor

	exec.Post(func(lctx context.Context) {
		err := l.Load(lctx, req, ListenerFuncs[R, V]{
			CacheMiss: func(mc *Container[R, V]) { c = mc },
			Success: func(sc *Container[R, V], fromCache bool) {
				v, _ := sc.Value()
				done <- result[V]{v: v, fromCache: fromCache}
			},
			Error: func(err error) { done <- result[V]{err: err} },
		})
		if err != nil {
			done <- result[V]{err: err}
		}
	})

	select {
	case r := <-done:
		return r.v, r.fromCache, r.err
	case <-ctx.Done():
		exec.Post(func(context.Context) { l.Cancel(c) })
		var zero V
		return zero, false, ctx.Err()
	}
}
