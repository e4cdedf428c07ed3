package perf

import "container/list"

// BoundedCache is a least-recently-used cache holding at most maxSize entries.
//
// This type is not safe for concurrent use.
type BoundedCache[K comparable, V any] struct {
	maxSize int
	ll      *list.List
	items   map[K]*list.Element
}

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewBoundedCache returns an empty cache. A maxSize <= 0 yields a cache that
// never stores anything.
func NewBoundedCache[K comparable, V any](maxSize int) *BoundedCache[K, V] {
	return &BoundedCache[K, V]{
		maxSize: maxSize,
		ll:      list.New(),
		items:   make(map[K]*list.Element),
	}
}

// Get returns the cached value and marks it most recently used.
func (c *BoundedCache[K, V]) Get(key K) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToBack(el)
	return el.Value.(*cacheEntry[K, V]).value, true
}

// Set inserts or replaces a value. Replacing an existing key never evicts.
func (c *BoundedCache[K, V]) Set(key K, value V) {
	if c.maxSize <= 0 {
		return
	}

	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	} else if c.ll.Len() >= c.maxSize {
		c.evictOldest()
	}

	c.items[key] = c.ll.PushBack(&cacheEntry[K, V]{key: key, value: value})
}

// Has reports membership without touching recency.
func (c *BoundedCache[K, V]) Has(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Clear drops every entry.
func (c *BoundedCache[K, V]) Clear() {
	c.ll.Init()
	c.items = make(map[K]*list.Element)
}

// Len returns the number of cached entries.
func (c *BoundedCache[K, V]) Len() int {
	return c.ll.Len()
}

// Cap returns the configured capacity.
func (c *BoundedCache[K, V]) Cap() int {
	return c.maxSize
}

// evictOldest drops the front of the list, which is the least recently used.
func (c *BoundedCache[K, V]) evictOldest() {
	front := c.ll.Front()
	if front == nil {
		return
	}
	c.ll.Remove(front)
	delete(c.items, front.Value.(*cacheEntry[K, V]).key)
}
