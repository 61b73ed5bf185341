package batchload

// batchedFetch maps one underlying Fetch to the containers interested in
// its result. It lives in the engine's in-flight table until the fetch
// completes and in the pending table until the result is delivered.
type batchedFetch[R, V any] struct {
	key        string
	fetch      Fetch
	containers []*Container[R, V]

	value V
	err   error
	done  bool
}

func newBatchedFetch[R, V any](key string, first *Container[R, V]) *batchedFetch[R, V] {
	return &batchedFetch[R, V]{key: key, containers: []*Container[R, V]{first}}
}

func (b *batchedFetch[R, V]) attach(c *Container[R, V]) int {
	b.containers = append(b.containers, c)
	return len(b.containers)
}

// detach removes c and reports whether it was attached.
func (b *batchedFetch[R, V]) detach(c *Container[R, V]) bool {
	for i, cc := range b.containers {
		if cc == c {
			copy(b.containers[i:], b.containers[i+1:])
			b.containers[len(b.containers)-1] = nil
			b.containers = b.containers[:len(b.containers)-1]
			return true
		}
	}
	return false
}

func (b *batchedFetch[R, V]) empty() bool { return len(b.containers) == 0 }

// succeed and fail set the result slot. They report false if a result was
// already recorded.
func (b *batchedFetch[R, V]) succeed(v V) bool {
	if b.done {
		return false
	}
	b.value, b.done = v, true
	return true
}

func (b *batchedFetch[R, V]) fail(err error) bool {
	if b.done {
		return false
	}
	b.err, b.done = err, true
	return true
}

// deliver notifies every still-active container and returns how many were
// notified. Containers canceled after completion are skipped.
func (b *batchedFetch[R, V]) deliver() int {
	n := 0
	for _, c := range b.containers {
		l := c.release()
		if l == nil {
			continue
		}
		if b.err != nil {
			l.OnError(b.err)
		} else {
			c.setValue(b.value)
			l.OnSuccess(c, false)
		}
		n++
	}
	b.containers = nil
	return n
}
