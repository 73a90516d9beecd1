package cache

// Cache is a generic LRU map with a soft limit. When an insertion takes the
// cache above the limit, least recently used entries are evicted and passed
// to the eviction callback.
//
// Cache is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	entries   map[K]*lruNode[K, V]
	order     lruList[K, V]
	softLimit int
	onEvict   func(K, V)

	evictions uint64
}

// New creates a cache with the given soft limit. A softLimit of 0 means
// unlimited. onEvict may be nil.
func New[K comparable, V any](softLimit int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*lruNode[K, V]),
		softLimit: max(softLimit, 0),
		onEvict:   onEvict,
	}
}

// Get retrieves a value and marks it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	node, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(node)
	return node.value, true
}

// Peek retrieves a value without touching its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	node, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return node.value, true
}

// Set stores a value. Replacing an existing value does not call onEvict.
func (c *Cache[K, V]) Set(key K, value V) {
	if node, ok := c.entries[key]; ok {
		node.value = value
		c.order.MoveToFront(node)
		return
	}
	c.entries[key] = c.order.PushFront(key, value)
	c.evict()
}

// GetOrCreate returns the cached value or stores the result of create.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := create()
	c.Set(key, v)
	return v
}

// Delete removes an entry without calling onEvict.
// Returns true if the entry was found.
func (c *Cache[K, V]) Delete(key K) bool {
	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.Remove(node)
	delete(c.entries, key)
	return true
}

// Clear removes all entries, calling onEvict for each of them.
func (c *Cache[K, V]) Clear() {
	if c.onEvict != nil {
		for node := c.order.Oldest(); node != nil; node = node.prev {
			c.onEvict(node.key, node.value)
		}
	}
	c.entries = make(map[K]*lruNode[K, V])
	c.order.Clear()
}

// Range calls fn for every entry from most to least recently used until fn
// returns false.
func (c *Cache[K, V]) Range(fn func(K, V) bool) {
	for node := c.order.head; node != nil; node = node.next {
		if !fn(node.key, node.value) {
			return
		}
	}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return len(c.entries)
}

// Capacity returns the soft limit.
func (c *Cache[K, V]) Capacity() int {
	return c.softLimit
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.softLimit,
		Evictions: c.evictions,
	}
}

// evict removes least recently used entries until the cache is within its
// soft limit.
func (c *Cache[K, V]) evict() {
	if c.softLimit == 0 {
		return
	}
	for len(c.entries) > c.softLimit {
		node := c.order.Oldest()
		c.order.Remove(node)
		delete(c.entries, node.key)
		c.evictions++
		if c.onEvict != nil {
			c.onEvict(node.key, node.value)
		}
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the soft limit, 0 when unlimited.
	Capacity int
	// Evictions is the number of entries evicted by the soft limit.
	Evictions uint64
}
