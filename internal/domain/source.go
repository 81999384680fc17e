package domain

import "context"

// ListingsFilter narrows a listings fetch against a single upstream.
type ListingsFilter struct {
	Limit  int
	Status MarketStatus // empty means the upstream default (open/active)
}

// MarketSource is the capability shared by every upstream adapter. A
// failed FetchListings returns a non-nil error with no records; the
// aggregator is responsible for swallowing it so one provider's outage
// never surfaces to callers. FetchOne reports a missing record as
// ErrNotFound.
type MarketSource interface {
	Platform() Platform
	FetchListings(ctx context.Context, f ListingsFilter) ([]Market, error)
	FetchOne(ctx context.Context, nativeID string) (Market, error)
}

// HistorySource is the optional capability of sources that expose a
// historical price series. Only Kalshi implements it today.
type HistorySource interface {
	FetchHistory(ctx context.Context, nativeID string, limit int) ([]HistoryPoint, error)
}
