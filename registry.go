package batchload

import (
	"fmt"
	"sort"
	"sync"
)

// Kind names one Loader in a Registry. The request and payload types are
// part of its identity, so equal names with different types never collide.
type Kind[R, V any] struct {
	name string
}

// NewKind creates a typed registry key.
func NewKind[R, V any](name string) Kind[R, V] {
	var (
		r R
		v V
	)
	return Kind[R, V]{name: fmt.Sprintf("%T->%T:%s", r, v, name)}
}

func (k Kind[R, V]) String() string { return k.name }

// Registry maps kinds to loaders. Build one when the application starts and
// pass it to whoever needs a Loader. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]any
}

func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]any)}
}

// Register adds l under k. It fails with ErrAlreadyRegistered if k is taken.
func Register[R, V any](r *Registry, k Kind[R, V], l Loader[R, V]) error {
	if l == nil {
		return fmt.Errorf("batchload: nil loader for %s", k.name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaders[k.name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, k.name)
	}
	r.loaders[k.name] = l
	return nil
}

// Lookup returns the loader registered under k.
func Lookup[R, V any](r *Registry, k Kind[R, V]) (Loader[R, V], bool) {
	r.mu.RLock()
	v, ok := r.loaders[k.name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	l, ok := v.(Loader[R, V])
	return l, ok
}

// MustLookup is like Lookup but panics when k is not registered.
func MustLookup[R, V any](r *Registry, k Kind[R, V]) Loader[R, V] {
	l, ok := Lookup(r, k)
	if !ok {
		panic(fmt.Sprintf("batchload: no loader registered for %s", k.name))
	}
	return l
}

// Kinds lists the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.loaders))
	for k := range r.loaders {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
