// ABOUTME: Thread-safe TTL cache of request results keyed by client request ID
// ABOUTME: Used by the HTTP API so a retried send returns the first result

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry stores one result and its position in the eviction order.
// done is closed once value and err are set.
type cacheEntry[V any] struct {
	timestamp time.Time
	element   *list.Element
	done      chan struct{}
	value     V
	err       error
}

func (e *cacheEntry[V]) ready() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Cache remembers results by key for a TTL, holding at most maxSize
// entries. Uses a doubly-linked list to maintain insertion order for O(1)
// eviction.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[V]
	order   *list.List // keys, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*cacheEntry[V]),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Lookup returns a completed, unexpired result for key.
func (c *Cache[V]) Lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok || !entry.ready() || entry.err != nil || time.Since(entry.timestamp) >= c.ttl {
		return zero, false
	}
	return entry.value, true
}

// Do returns the result remembered for key, or runs fn to produce it.
// Concurrent callers with the same key wait for the first one instead of
// running fn again. shared reports whether the result came from another
// call. Errors are handed to waiting callers but not remembered.
func (c *Cache[V]) Do(key string, fn func() (V, error)) (v V, shared bool, err error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.timestamp) < c.ttl {
		if !entry.ready() || entry.err == nil {
			c.mu.Unlock()
			<-entry.done
			return entry.value, true, entry.err
		}
	}
	entry := c.insertLocked(key)
	c.mu.Unlock()

	entry.value, entry.err = fn()
	close(entry.done)

	if entry.err != nil {
		c.mu.Lock()
		if c.entries[key] == entry {
			c.order.Remove(entry.element)
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	return entry.value, false, entry.err
}

// Len returns the number of entries, including expired ones not yet
// cleaned up.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// insertLocked adds a fresh, not-yet-ready entry for key. If the cache is at
// capacity the oldest entry is evicted. Must be called with mu held.
func (c *Cache[V]) insertLocked(key string) *cacheEntry[V] {
	if old, exists := c.entries[key]; exists {
		c.order.Remove(old.element)
		delete(c.entries, key)
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	entry := &cacheEntry[V]{
		timestamp: time.Now(),
		done:      make(chan struct{}),
	}
	entry.element = c.order.PushBack(key)
	c.entries[key] = entry
	return entry
}

// evictOldest removes the oldest entry from the cache.
// Must be called with mu held. O(1) operation using linked list.
func (c *Cache[V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes every expired, completed entry.
func (c *Cache[V]) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if entry.ready() && now.Sub(entry.timestamp) > c.ttl {
			c.order.Remove(entry.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
