package search

import (
	"context"
	"fmt"

	"bookpulse/internal/cache"
	"bookpulse/internal/ports"
	"bookpulse/internal/types"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search"

// Service memoizes listing searches in an in-process TTL cache. The cache is
// best-effort: any cache trouble degrades to recomputing from the store, never
// to a failed search. Concurrent misses on one key are collapsed through
// singleflight so the store sees a single query.
type Service struct {
	store ports.ListingStore
	cache *cache.Cache[[]types.Listing]
	sf    singleflight.Group
}

func NewService(store ports.ListingStore, c *cache.Cache[[]types.Listing]) *Service {
	return &Service{store: store, cache: c}
}

// Search returns the listings matching params, from cache when fresh.
func (s *Service) Search(ctx context.Context, params types.SearchParams) ([]types.Listing, error) {
	key := cache.Key(keyPrefix, params.Params())
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := s.sf.Do(key, func() (any, error) {
		ls, err := s.store.Query(ctx, params)
		if err != nil {
			return nil, err
		}
		s.cache.SetTTL(key, ls, cache.TTLSearchResults)
		return ls, nil
	})
	if err != nil {
		return nil, types.Err(types.ErrStoreAccess, err, "listing query")
	}
	return v.([]types.Listing), nil
}

// InvalidateCity drops every cached search mentioning city. Called after a
// listing in that city changes.
func (s *Service) InvalidateCity(city string) int {
	n := s.cache.InvalidatePattern(fmt.Sprintf("city=%s", city))
	if n > 0 {
		log.WithFields(log.Fields{"city": city, "removed": n}).Debug("search cache invalidated")
	}
	return n
}

// Invalidate drops every cached entry whose key contains pattern.
func (s *Service) Invalidate(pattern string) int {
	return s.cache.InvalidatePattern(pattern)
}

func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
