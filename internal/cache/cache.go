package cache

import (
	"sync"
)

// Cache defines a generic interface for caching built artifacts.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)
	// Put stores a value in the cache.
	Put(key K, v V)
	// DeleteFunc removes every entry match accepts and returns the values.
	DeleteFunc(match func(K, V) bool) []V
	// Size returns the number of items in the cache.
	Size() int
}

var _ Cache[int, int] = (*MapCache[int, int])(nil)

// MapCache is a simple in-memory implementation of Cache.
type MapCache[K comparable, V any] struct {
	data map[K]V
	mu   sync.RWMutex
}

func NewMapCache[K comparable, V any]() *MapCache[K, V] {
	return &MapCache[K, V]{
		data: make(map[K]V),
	}
}

func (c *MapCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *MapCache[K, V]) Put(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// DeleteFunc removes every entry for which match returns true and returns the
// removed values.
func (c *MapCache[K, V]) DeleteFunc(match func(K, V) bool) []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []V
	for k, v := range c.data {
		if match(k, v) {
			removed = append(removed, v)
			delete(c.data, k)
		}
	}
	return removed
}

func (c *MapCache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
