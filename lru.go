package multiform

import "container/list"

// lru is a fixed capacity least-recently-used map. It is not safe for
// concurrent use; callers hold their own lock.
type lru[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List

	// onEvict is called with the entry removed to make room for a new one.
	onEvict func(key K, value V)
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLRU[K comparable, V any](capacity int) *lru[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &lru[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// get returns the value for key and marks it most recently used.
func (c *lru[K, V]) get(key K) (V, bool) {
	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry[K, V]).value, true
}

// add inserts or replaces key, evicting the oldest entry when over capacity.
// It reports whether an entry was evicted.
func (c *lru[K, V]) add(key K, value V) bool {
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry[K, V]).value = value
		return false
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	if c.order.Len() <= c.capacity {
		return false
	}

	oldest := c.order.Back()
	entry := oldest.Value.(*lruEntry[K, V])
	c.order.Remove(oldest)
	delete(c.items, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
	return true
}

func (c *lru[K, V]) contains(key K) bool {
	_, ok := c.items[key]
	return ok
}

func (c *lru[K, V]) len() int {
	return c.order.Len()
}
