package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CacheTestSuite struct {
	suite.Suite

	now time.Time
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (s *CacheTestSuite) SetupTest() {
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	SetTimeNowFn(func() time.Time { return s.now })
}

func (s *CacheTestSuite) TearDownTest() {
	RestoreTimeNow()
}

func (s *CacheTestSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *CacheTestSuite) TestSetGetWithinTTL() {
	c := New[string](time.Minute)
	c.Set("key1", "value1")
	v, ok := c.Get("key1")
	s.True(ok)
	s.Equal("value1", v)

	s.advance(30 * time.Second)
	v, ok = c.Get("key1")
	s.True(ok)
	s.Equal("value1", v)
}

func (s *CacheTestSuite) TestExpiryAfterTTL() {
	c := New[string](time.Minute)
	c.Set("key1", "value1")

	s.advance(61 * time.Second)
	v, ok := c.Get("key1")
	s.False(ok)
	s.Equal("", v)
	// Lazy expiry evicted the entry during the read.
	s.Equal(0, c.Stats().Size)
}

func (s *CacheTestSuite) TestBoundaryIsLive() {
	// An entry exactly at its TTL is still live for that instant.
	c := New[string](time.Minute)
	c.Set("key1", "value1")

	s.advance(time.Minute)
	_, ok := c.Get("key1")
	s.True(ok)

	s.advance(time.Nanosecond)
	_, ok = c.Get("key1")
	s.False(ok)
}

func (s *CacheTestSuite) TestHasMatchesGetSemantics() {
	c := New[int](time.Minute)
	c.Set("k", 7)
	s.True(c.Has("k"))
	s.False(c.Has("missing"))

	s.advance(2 * time.Minute)
	// No "exists but expired" leak.
	s.False(c.Has("k"))
}

func (s *CacheTestSuite) TestSetOverwrites() {
	c := New[string](time.Minute)
	c.Set("k", "old")
	s.advance(50 * time.Second)
	c.Set("k", "new")

	// The overwrite refreshed storedAt.
	s.advance(50 * time.Second)
	v, ok := c.Get("k")
	s.True(ok)
	s.Equal("new", v)
}

func (s *CacheTestSuite) TestDeleteIdempotent() {
	c := New[string](time.Minute)
	c.Set("k", "v")
	s.True(c.Delete("k"))
	s.False(c.Delete("k"))
	s.False(c.Delete("never-existed"))
}

func (s *CacheTestSuite) TestClear() {
	c := New[string](time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()
	s.Equal(0, c.Stats().Size)
	s.False(c.Has("a"))
}

func (s *CacheTestSuite) TestInvalidatePattern() {
	c := New[string](time.Minute)
	c.Set("search:bangkok:dj", "r1")
	c.Set("search:phuket:dj", "r2")
	c.Set("profile:123", "p")

	removed := c.InvalidatePattern("search:")
	s.Equal(2, removed)
	s.False(c.Has("search:bangkok:dj"))
	s.False(c.Has("search:phuket:dj"))
	s.True(c.Has("profile:123"))

	s.Equal(0, c.InvalidatePattern("search:"))
}

func (s *CacheTestSuite) TestCleanupBoundsMemory() {
	c := New[string](time.Minute)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.SetTTL(k, k, 0)
	}
	s.advance(time.Second)
	removed := c.Cleanup()
	s.Equal(4, removed)
	s.Equal(0, c.Stats().Size)
}

func (s *CacheTestSuite) TestCleanupKeepsLiveEntries() {
	c := New[string](time.Minute)
	c.SetTTL("stale", "v", time.Second)
	c.SetTTL("fresh", "v", time.Hour)
	s.advance(2 * time.Second)
	s.Equal(1, c.Cleanup())
	s.True(c.Has("fresh"))
}

func (s *CacheTestSuite) TestBoundedEviction() {
	c := NewBounded[string](time.Minute, 2)
	c.SetTTL("soon", "v", 10*time.Second)
	c.SetTTL("later", "v", time.Hour)

	// Full cache, nothing expired: the entry closest to expiry goes.
	c.Set("third", "v")
	s.Equal(2, c.Stats().Size)
	s.False(c.Has("soon"))
	s.True(c.Has("later"))
	s.True(c.Has("third"))
}

func (s *CacheTestSuite) TestBoundedEvictionPrefersExpired() {
	c := NewBounded[string](time.Minute, 2)
	c.SetTTL("dead", "v", time.Second)
	c.SetTTL("alive", "v", time.Hour)
	s.advance(2 * time.Second)

	c.Set("third", "v")
	s.False(c.Has("dead"))
	s.True(c.Has("alive"))
	s.True(c.Has("third"))
}

func (s *CacheTestSuite) TestConcurrentAccess() {
	RestoreTimeNow() // real clock for the race check
	c := New[int](time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set("shared", n)
				c.Get("shared")
				c.Has("shared")
				c.Cleanup()
			}
		}(i)
	}
	wg.Wait()
	s.True(c.Has("shared"))
}
