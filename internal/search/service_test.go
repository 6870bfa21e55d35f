package search

import (
	"context"
	"errors"
	"testing"

	"bookpulse/internal/cache"
	"bookpulse/internal/types"

	"github.com/stretchr/testify/suite"
)

type fakeListingStore struct {
	listings []types.Listing
	queries  int
	err      error
}

func (f *fakeListingStore) Query(_ context.Context, params types.SearchParams) ([]types.Listing, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	var out []types.Listing
	for _, l := range f.listings {
		if params.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeListingStore) Put(_ context.Context, l types.Listing) error {
	f.listings = append(f.listings, l)
	return nil
}

func (f *fakeListingStore) ClearAll(context.Context) error {
	f.listings = nil
	return nil
}

type ServiceTestSuite struct {
	suite.Suite

	store *fakeListingStore
	svc   *Service
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = &fakeListingStore{
		listings: []types.Listing{
			{ID: "1", Name: "DJ Nok", Kind: "dj", City: "bangkok", Genre: "house", DayRate: 400},
			{ID: "2", Name: "DJ Lek", Kind: "dj", City: "phuket", Genre: "house", DayRate: 300},
			{ID: "3", Name: "The Warehouse", Kind: "venue", City: "bangkok", DayRate: 900},
		},
	}
	s.svc = NewService(s.store, cache.New[[]types.Listing](cache.TTLSearchResults))
}

func (s *ServiceTestSuite) TestSearchHitsCacheOnRepeat() {
	ctx := context.Background()
	params := types.SearchParams{City: "bangkok", Kind: "dj"}

	first, err := s.svc.Search(ctx, params)
	s.Require().NoError(err)
	s.Len(first, 1)
	s.Equal(1, s.store.queries)

	second, err := s.svc.Search(ctx, params)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1, s.store.queries) // served from cache
}

func (s *ServiceTestSuite) TestDifferentParamsMissCache() {
	ctx := context.Background()
	_, err := s.svc.Search(ctx, types.SearchParams{City: "bangkok"})
	s.Require().NoError(err)
	_, err = s.svc.Search(ctx, types.SearchParams{City: "phuket"})
	s.Require().NoError(err)
	s.Equal(2, s.store.queries)
}

func (s *ServiceTestSuite) TestInvalidateCityForcesRequery() {
	ctx := context.Background()
	params := types.SearchParams{City: "bangkok"}
	_, err := s.svc.Search(ctx, params)
	s.Require().NoError(err)

	// Unrelated city: cached entry survives.
	s.Equal(0, s.svc.InvalidateCity("phuket"))
	_, err = s.svc.Search(ctx, params)
	s.Require().NoError(err)
	s.Equal(1, s.store.queries)

	s.Equal(1, s.svc.InvalidateCity("bangkok"))
	_, err = s.svc.Search(ctx, params)
	s.Require().NoError(err)
	s.Equal(2, s.store.queries)
}

func (s *ServiceTestSuite) TestInvalidatePatternCount() {
	ctx := context.Background()
	_, err := s.svc.Search(ctx, types.SearchParams{City: "bangkok", Kind: "dj"})
	s.Require().NoError(err)
	_, err = s.svc.Search(ctx, types.SearchParams{City: "bangkok", Kind: "venue"})
	s.Require().NoError(err)
	_, err = s.svc.Search(ctx, types.SearchParams{City: "phuket"})
	s.Require().NoError(err)

	s.Equal(2, s.svc.Invalidate("city=bangkok"))
	s.Equal(1, s.svc.CacheStats().Size)
}

func (s *ServiceTestSuite) TestStoreErrorPropagates() {
	s.store.err = errors.New("connection refused")
	_, err := s.svc.Search(context.Background(), types.SearchParams{City: "bangkok"})
	s.ErrorIs(err, types.ErrStoreAccess)
	// Errors are never cached.
	s.Equal(0, s.svc.CacheStats().Size)
}

func (s *ServiceTestSuite) TestEmptyResultIsCached() {
	ctx := context.Background()
	params := types.SearchParams{City: "chiangmai"}
	out, err := s.svc.Search(ctx, params)
	s.Require().NoError(err)
	s.Empty(out)

	_, err = s.svc.Search(ctx, params)
	s.Require().NoError(err)
	s.Equal(1, s.store.queries)
}
