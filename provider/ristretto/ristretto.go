package ristretto

import (
	"errors"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/batchload"
	"github.com/unkn0wn-root/batchload/provider"
)

// Cache adapts a ristretto cache to batchload.Cache. Admission is decided by
// ristretto's TinyLFU policy, so a Put may be rejected under pressure and a
// Resize shrink takes effect as later writes evict.
type Cache[V any] struct {
	c    *rc.Cache
	size provider.SizeFunc[V]
}

var _ batchload.Cache[int] = (*Cache[int])(nil)

type Config[V any] struct {
	NumCounters int64 // 0 => 10x the expected item count, see ristretto docs
	MaxCost     int64 // 0 => provider.DefaultCapacity()
	BufferItems int64 // 0 => 64
	Metrics     bool
	Size        provider.SizeFunc[V] // nil => provider.One
}

func New[V any](cfg Config[V]) (*Cache[V], error) {
	if cfg.NumCounters < 0 || cfg.MaxCost < 0 || cfg.BufferItems < 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	if cfg.MaxCost == 0 {
		cfg.MaxCost = provider.DefaultCapacity()
	}
	if cfg.NumCounters == 0 {
		cfg.NumCounters = 1e6
	}
	if cfg.BufferItems == 0 {
		cfg.BufferItems = 64
	}
	if cfg.Size == nil {
		cfg.Size = provider.One[V]()
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[V]{c: c, size: cfg.Size}, nil
}

func (p *Cache[V]) Get(key string) (V, bool) {
	v, ok := p.c.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	tv, ok := v.(V)
	if !ok {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		var zero V
		return zero, false
	}
	return tv, true
}

// Put waits for the write buffer so a Get issued right after observes the
// value if the policy admitted it.
func (p *Cache[V]) Put(key string, value V) {
	if p.c.Set(key, value, p.size(key, value)) {
		p.c.Wait()
	}
}

func (p *Cache[V]) Remove(key string) { p.c.Del(key) }

func (p *Cache[V]) Resize(capacity int64) { p.c.UpdateMaxCost(capacity) }

func (p *Cache[V]) Close() {
	p.c.Wait()
	p.c.Close()
}

// Metrics is nil unless Config.Metrics was set.
func (p *Cache[V]) Metrics() *rc.Metrics { return p.c.Metrics }
