package polymarket

import (
	"context"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// Source adapts the Gamma client to the domain.MarketSource capability.
type Source struct {
	client *GammaClient
}

// NewSource creates a Source backed by the given Gamma client.
func NewSource(client *GammaClient) *Source {
	return &Source{client: client}
}

// Platform reports the platform this source serves.
func (s *Source) Platform() domain.Platform {
	return domain.PlatformPolymarket
}

// FetchListings fetches and normalizes a page of markets. Gamma only
// supports excluding closed markets upstream, so any finer status filter
// is re-applied by the aggregator after the merge.
func (s *Source) FetchListings(ctx context.Context, f domain.ListingsFilter) ([]domain.Market, error) {
	activeOnly := f.Status == "" || f.Status == domain.MarketStatusOpen

	raw, err := s.client.GetMarkets(ctx, f.Limit, 0, activeOnly)
	if err != nil {
		return nil, err
	}

	markets := make([]domain.Market, 0, len(raw))
	for i := range raw {
		markets = append(markets, raw[i].ToDomainMarket())
	}
	return markets, nil
}

// FetchOne fetches and normalizes a single market by Gamma ID.
func (s *Source) FetchOne(ctx context.Context, nativeID string) (domain.Market, error) {
	raw, err := s.client.GetMarket(ctx, nativeID)
	if err != nil {
		return domain.Market{}, err
	}
	return raw.ToDomainMarket(), nil
}

// Compile-time interface check.
var _ domain.MarketSource = (*Source)(nil)
