package cache

import (
	"strings"
	"sync"
	"time"
)

// TTL tiers for callers to pick from, matched to data volatility.
const (
	TTLShortTerm     = 1 * time.Minute
	TTLSearchResults = 3 * time.Minute
	TTLArtistProfile = 10 * time.Minute
	TTLStaticData    = 60 * time.Minute
)

// Cache is an in-process TTL cache to trim backend reads on hot paths.
// Each entry carries its own expiration; expiry is lazy on Get/Has, with
// Cleanup (see Janitor) bounding memory for keys that are never re-read.
// Absence and expiry are both reported as a false second return, never an
// error. Safe for concurrent use.
type Cache[V any] struct {
	mu         sync.RWMutex
	data       map[string]entry[V]
	defaultTTL time.Duration
	maxEntries int
}

type entry[V any] struct {
	val      V
	storedAt time.Time
	ttl      time.Duration
}

// live is the single liveness predicate; an entry exactly at its TTL boundary
// is still live. Get, Has and Cleanup must all go through it.
func (e entry[V]) live(now time.Time) bool {
	return now.Sub(e.storedAt) <= e.ttl
}

func New[V any](defaultTTL time.Duration) *Cache[V] {
	return NewBounded[V](defaultTTL, 0)
}

// NewBounded caps the entry count at maxEntries; 0 means unbounded. When the
// cache is full, Set first drops expired entries, then the entry closest to
// expiry.
func NewBounded[V any](defaultTTL time.Duration, maxEntries int) *Cache[V] {
	return &Cache[V]{
		data:       make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
	}
}

// Set stores a value under the default TTL. Last write wins.
func (c *Cache[V]) Set(k string, v V) {
	c.SetTTL(k, v, c.defaultTTL)
}

func (c *Cache[V]) SetTTL(k string, v V, ttl time.Duration) {
	now := timeNow()
	c.mu.Lock()
	if c.maxEntries > 0 {
		if _, exists := c.data[k]; !exists && len(c.data) >= c.maxEntries {
			c.evictLocked(now)
		}
	}
	c.data[k] = entry[V]{val: v, storedAt: now, ttl: ttl}
	c.mu.Unlock()
}

// Get returns the value and true if found and not expired; otherwise the zero
// value and false. An expired entry is evicted as part of the read.
func (c *Cache[V]) Get(k string) (V, bool) {
	now := timeNow()
	c.mu.RLock()
	e, ok := c.data[k]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if !e.live(now) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.data[k]; ok && !cur.live(now) {
			delete(c.data, k)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.val, true
}

// Has applies the same expiry semantics as Get.
func (c *Cache[V]) Has(k string) bool {
	_, ok := c.Get(k)
	return ok
}

// Delete removes an entry, reporting whether anything was removed. Removing an
// absent key is a no-op.
func (c *Cache[V]) Delete(k string) bool {
	c.mu.Lock()
	_, ok := c.data[k]
	delete(c.data, k)
	c.mu.Unlock()
	return ok
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.data = make(map[string]entry[V])
	c.mu.Unlock()
}

// InvalidatePattern removes every key containing pattern as a substring and
// returns the number removed. Used to drop a whole class of cached queries
// (e.g. all searches for one city) without tracking exact keys.
func (c *Cache[V]) InvalidatePattern(pattern string) int {
	removed := 0
	c.mu.Lock()
	for k := range c.data {
		if strings.Contains(k, pattern) {
			delete(c.data, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

// Cleanup removes all currently-expired entries and returns the number
// removed. Run periodically (Janitor) so unread keys don't accumulate.
func (c *Cache[V]) Cleanup() int {
	now := timeNow()
	removed := 0
	c.mu.Lock()
	for k, e := range c.data {
		if !e.live(now) {
			delete(c.data, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

type Stats struct {
	Size int `json:"size"`
}

func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	n := len(c.data)
	c.mu.RUnlock()
	return Stats{Size: n}
}

// evictLocked frees one slot: expired entries first, then the entry closest
// to expiry. Caller holds the write lock.
func (c *Cache[V]) evictLocked(now time.Time) {
	for k, e := range c.data {
		if !e.live(now) {
			delete(c.data, k)
		}
	}
	if len(c.data) < c.maxEntries {
		return
	}
	var victim string
	var victimExp time.Time
	first := true
	for k, e := range c.data {
		exp := e.storedAt.Add(e.ttl)
		if first || exp.Before(victimExp) {
			victim, victimExp = k, exp
			first = false
		}
	}
	if !first {
		delete(c.data, victim)
	}
}
