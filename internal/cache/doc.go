// Package cache provides the generic LRU map used by the flat pipeline cache
// strategy and the backend object caches.
//
//	c := cache.New[string, int](100, func(key string, v int) { release(v) })
//	c.Set("key", 42)
//	value, ok := c.Get("key")
//
// A soft limit of 0 means the cache never evicts.
//
// # Thread Safety
//
// Cache is owned by one render loop and performs no locking. Shared caches
// are guarded by their owner.
package cache
