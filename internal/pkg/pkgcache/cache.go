package pkgcache

import (
	"container/list"
	"sync"
	"time"
)

// Defaults applied by New when a Config field is not positive.
const (
	DefaultInitialCapacity   int           = 200
	DefaultMaximumSize       int           = 10_000
	DefaultExpireAfterWrite  time.Duration = 30 * time.Minute
	DefaultExpireAfterAccess time.Duration = 10 * time.Minute
)

// Config bounds the cache by size and by entry age.
type Config struct {
	InitialCapacity   int
	MaximumSize       int
	ExpireAfterWrite  time.Duration // max age since the entry was written
	ExpireAfterAccess time.Duration // max idle time since the last read or write
}

func (c Config) withDefaults() Config {
	if c.InitialCapacity < 1 {
		c.InitialCapacity = DefaultInitialCapacity
	}
	if c.MaximumSize < 1 {
		c.MaximumSize = DefaultMaximumSize
	}
	if c.ExpireAfterWrite <= 0 {
		c.ExpireAfterWrite = DefaultExpireAfterWrite
	}
	if c.ExpireAfterAccess <= 0 {
		c.ExpireAfterAccess = DefaultExpireAfterAccess
	}
	return c
}

type item[K comparable, V any] struct {
	key        K
	value      V
	writtenAt  time.Time
	accessedAt time.Time
}

// Cache is a thread-safe expiring LRU cache.
//
// Values are stored and returned by value, so callers never share mutable
// state through the cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	cfg     Config
	now     func() time.Time
	order   *list.List // front is the most recently used entry
	entries map[K]*list.Element
}

// New creates a cache with the given bounds, filling in defaults.
func New[K comparable, V any](cfg Config) *Cache[K, V] {
	return NewWithClock[K, V](cfg, time.Now)
}

// NewWithClock creates a cache using the provided time source.
func NewWithClock[K comparable, V any](cfg Config, now func() time.Time) *Cache[K, V] {
	cfg = cfg.withDefaults()

	return &Cache[K, V]{
		cfg:     cfg,
		now:     now,
		order:   list.New(),
		entries: make(map[K]*list.Element, cfg.InitialCapacity),
	}
}

// Get returns the value for key if present and not expired.
//
// A hit refreshes the entry's access time and recency; an expired entry is
// removed and reported as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	it := elem.Value.(*item[K, V])
	now := c.now()
	if c.expired(it, now) {
		c.remove(elem)
		return zero, false
	}

	it.accessedAt = now
	c.order.MoveToFront(elem)

	return it.value, true
}

// Put stores value under key, replacing any existing entry.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if elem, ok := c.entries[key]; ok {
		it := elem.Value.(*item[K, V])
		it.value = value
		it.writtenAt = now
		it.accessedAt = now
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&item[K, V]{
		key:        key,
		value:      value,
		writtenAt:  now,
		accessedAt: now,
	})
	c.entries[key] = elem

	for len(c.entries) > c.cfg.MaximumSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest)
	}
}

// Evict removes key from the cache. Evicting an absent key is a no-op.
func (c *Cache[K, V]) Evict(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

// Len reports the number of entries, including any not yet swept expired ones.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache[K, V]) expired(it *item[K, V], now time.Time) bool {
	if now.Sub(it.writtenAt) >= c.cfg.ExpireAfterWrite {
		return true
	}

	return now.Sub(it.accessedAt) >= c.cfg.ExpireAfterAccess
}

func (c *Cache[K, V]) remove(elem *list.Element) {
	it := elem.Value.(*item[K, V])
	c.order.Remove(elem)
	delete(c.entries, it.key)
}
