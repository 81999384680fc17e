package kalshi

import (
	"context"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// Source adapts the Kalshi REST client to the domain.MarketSource
// capability.
type Source struct {
	client *Client
}

// NewSource creates a Source backed by the given client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Platform reports the platform this source serves.
func (s *Source) Platform() domain.Platform {
	return domain.PlatformKalshi
}

// FetchListings fetches and normalizes a page of markets. The status
// filter is pushed down to the upstream query.
func (s *Source) FetchListings(ctx context.Context, f domain.ListingsFilter) ([]domain.Market, error) {
	status := "open"
	switch f.Status {
	case domain.MarketStatusClosed:
		status = "closed"
	case domain.MarketStatusResolved:
		status = "settled"
	}

	raw, _, err := s.client.GetMarkets(ctx, f.Limit, "", status)
	if err != nil {
		return nil, err
	}

	markets := make([]domain.Market, 0, len(raw))
	for i := range raw {
		markets = append(markets, raw[i].ToDomainMarket())
	}
	return markets, nil
}

// FetchOne fetches and normalizes a single market by ticker.
func (s *Source) FetchOne(ctx context.Context, nativeID string) (domain.Market, error) {
	raw, err := s.client.GetMarket(ctx, nativeID)
	if err != nil {
		return domain.Market{}, err
	}
	return raw.ToDomainMarket(), nil
}

// FetchHistory fetches and normalizes the historical series for a
// market ticker.
func (s *Source) FetchHistory(ctx context.Context, nativeID string, limit int) ([]domain.HistoryPoint, error) {
	raw, err := s.client.GetMarketHistory(ctx, nativeID, limit)
	if err != nil {
		return nil, err
	}
	points := make([]domain.HistoryPoint, 0, len(raw))
	for i := range raw {
		points = append(points, raw[i].ToHistoryPoint())
	}
	return points, nil
}

// Compile-time interface checks.
var (
	_ domain.MarketSource  = (*Source)(nil)
	_ domain.HistorySource = (*Source)(nil)
)
