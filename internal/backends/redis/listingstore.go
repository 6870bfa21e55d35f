package redis

import (
	"context"
	"fmt"

	"bookpulse/internal/types"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const listingKeyNameTemplate = "_bookpulse_listing_%s"

// ListingStore implements ports.ListingStore with one JSON value per listing,
// filtered in process. Same small-catalog assumption as the DynamoDB backend.
type ListingStore struct {
	cli *redis.Client
}

func NewListingStore(cli *redis.Client) *ListingStore {
	return &ListingStore{cli: cli}
}

func (s *ListingStore) Put(ctx context.Context, l types.Listing) error {
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	out := s.cli.Set(ctx, getListingKey(l.ID), string(b), 0)
	if out.Err() != nil {
		return types.Err(types.ErrStoreAccess, out.Err(), "put listing")
	}
	return nil
}

func (s *ListingStore) Query(ctx context.Context, params types.SearchParams) ([]types.Listing, error) {
	keysOut := s.cli.Keys(ctx, getListingKey("*"))
	if keysOut.Err() != nil {
		return nil, types.Err(types.ErrStoreAccess, keysOut.Err(), "list listings")
	}
	keys := keysOut.Val()
	if len(keys) == 0 {
		return nil, nil
	}
	valsOut := s.cli.MGet(ctx, keys...)
	if valsOut.Err() != nil {
		return nil, types.Err(types.ErrStoreAccess, valsOut.Err(), "read listings")
	}
	var listings []types.Listing
	for i, v := range valsOut.Val() {
		str, ok := v.(string)
		if !ok {
			continue // deleted between KEYS and MGET
		}
		var l types.Listing
		if err := json.Unmarshal([]byte(str), &l); err != nil {
			log.WithError(err).WithField("key", keys[i]).Error("invalid listing record")
			continue
		}
		if params.Match(l) {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

func (s *ListingStore) ClearAll(ctx context.Context) error {
	out := s.cli.Keys(ctx, getListingKey("*"))
	if out.Err() != nil {
		return out.Err()
	}
	if len(out.Val()) == 0 {
		return nil
	}
	return s.cli.Del(ctx, out.Val()...).Err()
}

func getListingKey(id string) string {
	return fmt.Sprintf(listingKeyNameTemplate, id)
}
