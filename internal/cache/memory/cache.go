// Package memory implements the in-process TTL caches that absorb
// request bursts against the upstream market APIs. Each cache instance is
// bounded in size and evicts least-recently-used entries under capacity
// pressure; entries expire lazily on read.
package memory

import (
	"container/list"
	"sync"
	"time"
)

// Option customizes a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithClock overrides the cache's time source. Used by tests to control
// expiry deterministically.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.now = now
	}
}

// Cache is a bounded key-value store with a fixed per-entry TTL and LRU
// eviction. All methods are safe for concurrent use. Two concurrent
// misses on the same key are both reported as misses; the cache does not
// coalesce the resulting duplicate fetches.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	ll       *list.List // front = most recently used
	items    map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// New creates a Cache holding at most capacity entries, each expiring ttl
// after insertion.
func New[K comparable, V any](capacity int, ttl time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key and whether it was present. An
// expired entry is removed and reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[K, V])
	if c.now().After(ent.expiresAt) {
		c.removeElement(el)
		return zero, false
	}

	c.ll.MoveToFront(el)
	return ent.value, true
}

// Set stores value under key with a fresh TTL. When the cache is at
// capacity it first drops any expired entries, then evicts the least
// recently used entry if still full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	if c.capacity > 0 && c.ll.Len() >= c.capacity {
		c.dropExpired()
		for c.ll.Len() >= c.capacity {
			oldest := c.ll.Back()
			if oldest == nil {
				break
			}
			c.removeElement(oldest)
		}
	}

	el := c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = el
}

// Delete removes key from the cache if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.items = make(map[K]*list.Element)
}

// Len returns the number of stored entries, including any that have
// expired but not yet been dropped.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// dropExpired removes all expired entries. Caller must hold c.mu.
func (c *Cache[K, V]) dropExpired() {
	now := c.now()
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[K, V]).expiresAt) {
			c.removeElement(el)
		}
		el = prev
	}
}

// removeElement unlinks an element from both the list and the index.
// Caller must hold c.mu.
func (c *Cache[K, V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
