package pricing

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Clock supplies the current time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock used outside tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	quotes   []Quote
	storedAt time.Time
}

// Cache remembers quote sets per item for a fixed TTL. Expired entries are
// evicted when read.
type Cache struct {
	ttl   time.Duration
	clock Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache creates a cache holding entries for ttl.
func NewCache(ttl time.Duration, clock Clock) *Cache {
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached quotes for an item, or false when missing or
// expired.
func (c *Cache) Get(name, qty string) ([]Quote, bool) {
	key := cacheKey(name, qty)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.quotes, true
}

// Put stores the quotes for an item, stamped with the current time.
func (c *Cache) Put(name, qty string, quotes []Quote) {
	key := cacheKey(name, qty)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{quotes: quotes, storedAt: c.clock.Now()}
}

func cacheKey(name, qty string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(name)) + ":" + qty))
	return hex.EncodeToString(sum[:])
}
