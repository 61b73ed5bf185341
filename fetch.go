package batchload

import (
	"context"
	"sync"
)

// FuncFetch is a Fetch backed by a plain function. Build one with NewFetch.
type FuncFetch[V any] struct {
	fn        func(ctx context.Context) (V, error)
	onSuccess func(V)
	onError   func(error)

	mu       sync.Mutex
	canceled bool
	started  bool
	stop     context.CancelFunc
}

var _ Fetch = (*FuncFetch[struct{}])(nil)

// NewFetch adapts fn to a Fetch. Cancel cancels the context fn runs with
// and suppresses both callbacks, even if fn has already returned.
func NewFetch[V any](fn func(ctx context.Context) (V, error), onSuccess func(V), onError func(error)) *FuncFetch[V] {
	return &FuncFetch[V]{fn: fn, onSuccess: onSuccess, onError: onError}
}

func (f *FuncFetch[V]) Execute(ctx context.Context) {
	f.mu.Lock()
	if f.canceled || f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	ctx, f.stop = context.WithCancel(ctx)
	f.mu.Unlock()

	v, err := f.fn(ctx)

	f.mu.Lock()
	f.stop()
	canceled := f.canceled
	f.mu.Unlock()
	if canceled {
		return
	}
	if err != nil {
		f.onError(err)
		return
	}
	f.onSuccess(v)
}

func (f *FuncFetch[V]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = true
	if f.stop != nil {
		f.stop()
	}
}

// Canceled reports whether Cancel was called.
func (f *FuncFetch[V]) Canceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}
