// Package redisfetch loads values stored in Redis through a batchload engine.
package redisfetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/batchload"
	"github.com/unkn0wn-root/batchload/codec"
)

var (
	ErrNilClient = errors.New("redisfetch: nil client")
	ErrNilCodec  = errors.New("redisfetch: nil codec")
	ErrNotFound  = errors.New("redisfetch: key not found")
)

type Config[V any] struct {
	Client      goredis.UniversalClient
	Codec       codec.Codec[V]
	Prefix      string // prepended to every id to form the Redis key
	CloseClient bool   // set true only if the fetcher exclusively owns the client
}

type Fetcher[V any] struct {
	rdb         goredis.UniversalClient
	codec       codec.Codec[V]
	prefix      string
	closeClient bool
}

func New[V any](cfg Config[V]) (*Fetcher[V], error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Codec == nil {
		return nil, ErrNilCodec
	}
	return &Fetcher[V]{rdb: cfg.Client, codec: cfg.Codec, prefix: cfg.Prefix, closeClient: cfg.CloseClient}, nil
}

// Key is the batchload cache key for id: "redis:" followed by the Redis key.
func (f *Fetcher[V]) Key(id string) string { return "redis:" + f.prefix + id }

// Get reads and decodes the value stored for id.
func (f *Fetcher[V]) Get(ctx context.Context, id string) (V, error) {
	var zero V
	key := f.prefix + id
	b, err := f.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return zero, fmt.Errorf("redisfetch: get %s: %w", key, err)
	}
	v, err := f.codec.Decode(b)
	if err != nil {
		return zero, fmt.Errorf("redisfetch: decode %s: %w", key, err)
	}
	return v, nil
}

// Put encodes and stores v for id. A non-positive ttl means no expiry.
func (f *Fetcher[V]) Put(ctx context.Context, id string, v V, ttl time.Duration) error {
	b, err := f.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("redisfetch: encode %s%s: %w", f.prefix, id, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return f.rdb.Set(ctx, f.prefix+id, b, ttl).Err()
}

// Fetch builds engine fetches for ids.
func (f *Fetcher[V]) Fetch(id string, onSuccess func(V), onError func(error)) batchload.Fetch {
	return batchload.NewFetch(func(ctx context.Context) (V, error) {
		return f.Get(ctx, id)
	}, onSuccess, onError)
}

// Close releases the client only when this fetcher owns it. Safe to call
// multiple times.
func (f *Fetcher[V]) Close() error {
	if f.closeClient {
		if err := f.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
