package batchload

// Container is one caller's interest in one load. It is created by the
// Loader and handed to the Listener; callers only read it and pass it back
// to Cancel, Clear or IsCached.
type Container[R, V any] struct {
	owner    any // *engine[R, V]; nil for untracked cache hits
	key      string
	req      R
	value    V
	hasValue bool
	listener Listener[R, V] // nil once delivered or canceled
}

func newContainer[R, V any](owner any, key string, req R, l Listener[R, V]) *Container[R, V] {
	return &Container[R, V]{owner: owner, key: key, req: req, listener: l}
}

// cached builds the untracked container used for synchronous cache hits.
func cached[R, V any](req R, v V) *Container[R, V] {
	return &Container[R, V]{req: req, value: v, hasValue: true}
}

// Key returns the cache key, or "" for a container that was served from the
// cache and never tracked.
func (c *Container[R, V]) Key() string { return c.key }

// Request returns the request the container was created for.
func (c *Container[R, V]) Request() R { return c.req }

// Value returns the loaded value once it has been delivered.
func (c *Container[R, V]) Value() (V, bool) { return c.value, c.hasValue }

// Tracked reports whether the container went through a fetch cycle.
func (c *Container[R, V]) Tracked() bool { return c.key != "" }

// Active reports whether the container is still waiting for a result.
func (c *Container[R, V]) Active() bool { return c.listener != nil }

// release clears the listener and returns it. The listener is the
// still-interested marker, so release makes later Cancel calls no-ops.
func (c *Container[R, V]) release() Listener[R, V] {
	l := c.listener
	c.listener = nil
	return l
}

func (c *Container[R, V]) setValue(v V) {
	c.value = v
	c.hasValue = true
}
