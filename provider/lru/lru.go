// Package lru is the reference batchload cache: a least-recently-used map
// bounded by the summed weight of its values.
package lru

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/unkn0wn-root/batchload"
	"github.com/unkn0wn-root/batchload/provider"
)

type entry[V any] struct {
	key    string
	value  V
	weight int64
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int64
	used     int64
	size     provider.SizeFunc[V]
	onEvict  func(key string, value V)

	ll    *list.List // front = most recently used
	items map[string]*list.Element
}

var _ batchload.Cache[int] = (*Cache[int])(nil)

type Config[V any] struct {
	Capacity int64                 // 0 => provider.DefaultCapacity()
	Size     provider.SizeFunc[V]  // nil => provider.One
	OnEvict  func(key string, v V) // called for capacity evictions, not for Remove
}

func New[V any](cfg Config[V]) (*Cache[V], error) {
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("lru: negative capacity %d", cfg.Capacity)
	}
	c := &Cache[V]{
		capacity: cfg.Capacity,
		size:     cfg.Size,
		onEvict:  cfg.OnEvict,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
	if c.capacity == 0 {
		c.capacity = provider.DefaultCapacity()
	}
	if c.size == nil {
		c.size = provider.One[V]()
	}
	return c, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry[V]).value, true
}

// Put stores value as the most recently used entry and evicts from the tail
// until the cache fits. A value heavier than the whole capacity is not
// stored, and any previous entry for key is dropped.
func (c *Cache[V]) Put(key string, value V) {
	w := c.size(key, value)
	var evicted []*entry[V]

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
	if w <= c.capacity {
		c.items[key] = c.ll.PushFront(&entry[V]{key: key, value: value, weight: w})
		c.used += w
		evicted = c.trim()
	}
	c.mu.Unlock()

	c.notify(evicted)
}

func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Resize evicts least recently used entries right away when shrinking.
func (c *Cache[V]) Resize(capacity int64) {
	if capacity < 0 {
		capacity = 0
	}
	c.mu.Lock()
	c.capacity = capacity
	evicted := c.trim()
	c.mu.Unlock()

	c.notify(evicted)
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[V]) Used() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

func (c *Cache[V]) Capacity() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Keys returns the cached keys from most to least recently used.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[V]).key)
	}
	return keys
}

// trim must be called with mu held.
func (c *Cache[V]) trim() []*entry[V] {
	var evicted []*entry[V]
	for c.used > c.capacity {
		el := c.ll.Back()
		if el == nil {
			break
		}
		evicted = append(evicted, c.removeElement(el))
	}
	return evicted
}

func (c *Cache[V]) removeElement(el *list.Element) *entry[V] {
	e := c.ll.Remove(el).(*entry[V])
	delete(c.items, e.key)
	c.used -= e.weight
	return e
}

func (c *Cache[V]) notify(evicted []*entry[V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range evicted {
		c.onEvict(e.key, e.value)
	}
}
