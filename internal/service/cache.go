package service

import (
	"sync"
	"time"
)

type cachedList[T any] struct {
	items  []T
	expiry time.Time
}

// listCache keeps fetched lists for filtering between page loads. Entries are
// overwritten on reload and expire after ttl.
type listCache[T any] struct {
	ttl time.Duration

	mu   sync.RWMutex
	data map[string]cachedList[T]
}

func newListCache[T any](ttl time.Duration) *listCache[T] {
	return &listCache[T]{ttl: ttl, data: make(map[string]cachedList[T])}
}

func (c *listCache[T]) get(key string) ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiry) {
		return nil, false
	}
	return entry.items, true
}

func (c *listCache[T]) set(key string, items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cachedList[T]{items: items, expiry: time.Now().Add(c.ttl)}
}

// appendTo adds item to a live entry. It returns false when there is nothing cached.
func (c *listCache[T]) appendTo(key string, item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiry) {
		return false
	}
	items := make([]T, 0, len(entry.items)+1)
	items = append(items, entry.items...)
	entry.items = append(items, item)
	c.data[key] = entry
	return true
}

// update rewrites the cached entry in place, if any.
func (c *listCache[T]) update(key string, fn func([]T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.data[key]; ok {
		items := append([]T(nil), entry.items...)
		fn(items)
		entry.items = items
		c.data[key] = entry
	}
}

func (c *listCache[T]) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// updateAll applies fn to every live entry.
func (c *listCache[T]) updateAll(fn func([]T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.data {
		items := append([]T(nil), entry.items...)
		fn(items)
		entry.items = items
		c.data[key] = entry
	}
}
