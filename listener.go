package batchload

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs[R, V any] struct {
	CacheMiss func(c *Container[R, V])
	Success   func(c *Container[R, V], fromCache bool)
	Error     func(err error)
}

var _ Listener[string, string] = ListenerFuncs[string, string]{}

func (f ListenerFuncs[R, V]) OnCacheMiss(c *Container[R, V]) {
	if f.CacheMiss != nil {
		f.CacheMiss(c)
	}
}

func (f ListenerFuncs[R, V]) OnSuccess(c *Container[R, V], fromCache bool) {
	if f.Success != nil {
		f.Success(c, fromCache)
	}
}

func (f ListenerFuncs[R, V]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}
