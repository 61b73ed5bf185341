// Package bigcache stores batchload values off the Go heap in an
// allegro/bigcache instance. Values are encoded with a codec and framed with
// a checksum; frames that fail validation are deleted on read.
package bigcache

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/batchload"
	"github.com/unkn0wn-root/batchload/codec"
	"github.com/unkn0wn-root/batchload/internal/wire"
)

const (
	defaultShards       = 16
	defaultEntries      = 1024
	defaultMaxEntrySize = 512
	mib                 = 1 << 20
)

type Config[V any] struct {
	Codec codec.Codec[V] // required

	// Capacity is the hard limit in bytes, rounded up to whole MiB.
	// 0 => unlimited.
	Capacity int64

	LifeWindow         time.Duration // 0 => entries never expire
	CleanWindow        time.Duration // 0 => expired entries are dropped lazily on write
	Shards             int           // power of two; 0 => 16
	MaxEntriesInWindow int           // sizing hint; 0 => 1024
	MaxEntrySize       int           // sizing hint in bytes; 0 => 512

	Logger batchload.Logger // receives bigcache's allocation logs at Debug
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	mu    sync.RWMutex
	c     *bc.BigCache
	conf  bc.Config
	codec codec.Codec[V]
	log   batchload.Logger
	empty bool // Resize(<=0): store nothing
}

var _ batchload.Cache[int] = (*Cache[int])(nil)

func New[V any](cfg Config[V]) (*Cache[V], error) {
	if cfg.Codec == nil {
		return nil, errors.New("bigcache: codec is required")
	}
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("bigcache: negative capacity %d", cfg.Capacity)
	}

	life := cfg.LifeWindow
	if life <= 0 {
		life = time.Duration(math.MaxInt64)
	}
	conf := bc.DefaultConfig(life)
	conf.CleanWindow = cfg.CleanWindow
	conf.Shards = defaultShards
	conf.MaxEntriesInWindow = defaultEntries
	conf.MaxEntrySize = defaultMaxEntrySize
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	conf.HardMaxCacheSize = toMiB(cfg.Capacity)

	p := &Cache[V]{codec: cfg.Codec, log: cfg.Logger}
	if p.log == nil {
		p.log = batchload.NopLogger{}
	}
	conf.Logger = printfLogger{p.log}

	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	p.c, p.conf = c, conf
	return p, nil
}

func toMiB(capacity int64) int {
	if capacity <= 0 {
		return 0
	}
	return int((capacity + mib - 1) / mib)
}

func (p *Cache[V]) Get(key string) (V, bool) {
	var zero V

	p.mu.RLock()
	b, err := p.c.Get(key)
	p.mu.RUnlock()
	if err != nil {
		if !errors.Is(err, bc.ErrEntryNotFound) {
			p.log.Warn("bigcache get failed", batchload.Fields{"key": key, "err": err})
		}
		return zero, false
	}

	payload, err := wire.DecodeEntry(b)
	if err != nil {
		p.heal(key, err)
		return zero, false
	}
	v, err := p.codec.Decode(payload)
	if err != nil {
		p.heal(key, err)
		return zero, false
	}
	return v, true
}

func (p *Cache[V]) heal(key string, cause error) {
	p.log.Warn("dropping unreadable cache entry", batchload.Fields{"key": key, "err": cause})
	p.Remove(key)
}

// Put drops the entry when the value cannot be encoded or does not fit.
func (p *Cache[V]) Put(key string, value V) {
	payload, err := p.codec.Encode(value)
	if err != nil {
		p.log.Warn("cache encode failed", batchload.Fields{"key": key, "err": err})
		p.Remove(key)
		return
	}

	p.mu.RLock()
	if p.empty {
		p.mu.RUnlock()
		return
	}
	err = p.c.Set(key, wire.EncodeEntry(payload))
	p.mu.RUnlock()
	if err != nil {
		p.log.Warn("bigcache set failed", batchload.Fields{"key": key, "err": err})
		p.Remove(key)
	}
}

func (p *Cache[V]) Remove(key string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_ = p.c.Delete(key)
}

// Resize rebuilds the store with the new hard limit and copies the live
// entries over. When shrinking, bigcache overwrites the oldest entries first.
// A capacity <= 0 empties the cache and makes Put a no-op until the next
// positive Resize; bigcache itself reads a zero hard limit as unlimited.
func (p *Cache[V]) Resize(capacity int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if capacity <= 0 {
		if err := p.c.Reset(); err != nil {
			p.log.Error("bigcache reset failed", batchload.Fields{"err": err})
		}
		p.empty = true
		p.log.Debug("bigcache emptied", batchload.Fields{"capacity": capacity})
		return
	}
	p.empty = false

	conf := p.conf
	conf.HardMaxCacheSize = toMiB(capacity)
	next, err := bc.NewBigCache(conf)
	if err != nil {
		p.log.Error("bigcache resize failed", batchload.Fields{"capacity": capacity, "err": err})
		return
	}

	copied := 0
	it := p.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			continue
		}
		if next.Set(e.Key(), e.Value()) == nil {
			copied++
		}
	}

	old := p.c
	p.c, p.conf = next, conf
	_ = old.Close()
	p.log.Debug("bigcache resized", batchload.Fields{"capacity": capacity, "entries": copied})
}

func (p *Cache[V]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.c.Len()
}

func (p *Cache[V]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.c.Close()
}

// printfLogger feeds bigcache's Printf-style verbose output into a Logger.
type printfLogger struct{ l batchload.Logger }

func (pl printfLogger) Printf(format string, v ...any) {
	pl.l.Debug(fmt.Sprintf(format, v...), nil)
}
