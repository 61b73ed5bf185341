// Package provider holds what the batchload cache implementations share:
// the sizing contract and the default capacity.
//
// Implementations satisfy batchload.Cache[V]. They are only called from the
// engine's executor, so none of them is required to be safe for concurrent
// use, but all of the bundled ones are.
package provider

import (
	"math"
	"runtime/debug"
)

// SizeFunc reports the weight of a value in the cache's capacity unit,
// usually bytes. Values must not change weight while cached.
type SizeFunc[V any] func(key string, value V) int64

// One returns a SizeFunc that counts entries instead of bytes.
func One[V any]() SizeFunc[V] {
	return func(string, V) int64 { return 1 }
}

const fallbackCapacity int64 = 64 << 20

// DefaultCapacity is one eighth of the memory available to the process, taken
// from the runtime soft memory limit (GOMEMLIMIT). Without a limit it falls
// back to 64 MiB.
func DefaultCapacity() int64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return fallbackCapacity
	}
	return limit / 8
}
