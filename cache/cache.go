// Package cache provides a generic, thread-safe LRU cache with load-once
// semantics, used to keep compiled validators by unit ID.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Cache is a thread-safe LRU cache.
//
// GetOrLoad runs at most one load per missing key at a time; concurrent
// callers for the same key wait for it and share its outcome. Failed loads
// are not cached.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]*list.Element
	order    *list.List // front is most recently used
	loading  map[K]*call[V]
	capacity int
	onEvict  func(K, V)

	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
	loads  atomic.Uint64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// call is a load in progress.
type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// OnEvict registers fn to run, without the cache lock held, for each entry
// dropped to make room. Delete and Clear do not call it.
func OnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New creates a Cache holding at most capacity entries. A capacity <= 0
// means 100.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 100
	}
	c := &Cache[K, V]{
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		loading:  make(map[K]*call[V]),
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key)
}

// lookup must be called with mu held.
func (c *Cache[K, V]) lookup(key K) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Set adds or replaces the value for key, evicting the least recently used
// entry if the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	evicted, ok := c.store(key, value)
	c.mu.Unlock()
	if ok && c.onEvict != nil {
		c.onEvict(evicted.key, evicted.value)
	}
}

// store must be called with mu held.
func (c *Cache[K, V]) store(key K, value V) (evicted *entry[K, V], ok bool) {
	if el, found := c.items[key]; found {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return nil, false
	}
	if len(c.items) >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			evicted = c.order.Remove(oldest).(*entry[K, V])
			delete(c.items, evicted.key)
			c.evicts.Add(1)
			ok = true
		}
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	return evicted, ok
}

// GetOrLoad returns the value for key, calling load to produce it on a miss.
// hit reports whether the value was already cached.
func (c *Cache[K, V]) GetOrLoad(key K, load func(K) (V, error)) (value V, hit bool, err error) {
	c.mu.Lock()
	if v, ok := c.lookup(key); ok {
		c.mu.Unlock()
		return v, true, nil
	}
	if cl, ok := c.loading[key]; ok {
		c.mu.Unlock()
		<-cl.done
		return cl.value, false, cl.err
	}
	cl := &call[V]{done: make(chan struct{})}
	c.loading[key] = cl
	c.mu.Unlock()

	c.loads.Add(1)
	cl.value, cl.err = load(key)

	c.mu.Lock()
	delete(c.loading, key)
	var evicted *entry[K, V]
	var ok bool
	if cl.err == nil {
		evicted, ok = c.store(key, cl.value)
	}
	c.mu.Unlock()
	close(cl.done)

	if ok && c.onEvict != nil {
		c.onEvict(evicted.key, evicted.value)
	}
	return cl.value, false, cl.err
}

// Delete removes key, reporting whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
	return ok
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

// Keys returns the cached keys, most recently used first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Stats holds cache statistics.
type Stats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
	Evicts   uint64
	Loads    uint64
	HitRate  float64
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	size := c.Len()
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:     size,
		Capacity: c.capacity,
		Hits:     hits,
		Misses:   misses,
		Evicts:   c.evicts.Load(),
		Loads:    c.loads.Load(),
		HitRate:  hitRate,
	}
}
