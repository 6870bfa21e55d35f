package ports

import (
	"context"

	"bookpulse/internal/types"
)

// ListingStore answers listing searches. Queries are the expensive reads the
// in-process cache sits in front of; callers MAY cache results and are
// responsible for recomputing on a miss.
type ListingStore interface {
	// Query returns the listings matching params.
	Query(ctx context.Context, params types.SearchParams) ([]types.Listing, error)

	// Put upserts a listing.
	Put(ctx context.Context, l types.Listing) error

	// ClearAll purges all listings. Used in tests only.
	ClearAll(ctx context.Context) error
}
