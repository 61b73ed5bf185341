// Package codec turns payloads into bytes and back for the byte-oriented
// parts of batchload: the bigcache provider, the Redis transport and the
// JSON object adapter.
package codec

import (
	"errors"
	"fmt"
)

// Codec encodes and decodes payloads of type V.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// ErrTooLarge is matched by errors from Limit.Decode.
var ErrTooLarge = errors.New("codec: payload too large")

// TooLargeError reports a payload rejected by Limit.
type TooLargeError struct {
	Size, Max int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("codec: payload too large: %d > %d bytes", e.Size, e.Max)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }
