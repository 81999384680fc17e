// Package traders serves the tracked smart-trader dataset. The data is
// a static snapshot; on-chain analysis that would refresh it lives
// outside this service.
package traders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oddsradar/oddsradar/internal/domain"
)

var dataset = []domain.SmartTrader{
	{
		ID:         "st_001",
		Address:    "0x7a16ff8270133f063aab6c9977183d9e72835428",
		TotalValue: 2450000,
		PnL:        185000,
		WinRate:    0.72,
		TradeCount: 156,
		Positions: []domain.TraderPosition{
			{MarketID: "poly_election2024", Side: "yes", Size: 50000, Value: 85000, EntryPrice: 0.58},
			{MarketID: "kalshi_fed_rate", Side: "no", Size: 25000, Value: 32000, EntryPrice: 0.78},
		},
	},
	{
		ID:         "st_002",
		Address:    "0x2b591e99afe9f32eaa6214f7b7629768c40eeb39",
		TotalValue: 1850000,
		PnL:        320000,
		WinRate:    0.68,
		TradeCount: 234,
		Positions: []domain.TraderPosition{
			{MarketID: "poly_btc_100k", Side: "yes", Size: 75000, Value: 95000, EntryPrice: 0.45},
		},
	},
	{
		ID:         "st_003",
		Address:    "0x9bf4001d307dfd62b26a2f1307ee0c0307632d59",
		TotalValue: 980000,
		PnL:        -45000,
		WinRate:    0.51,
		TradeCount: 89,
		Positions:  []domain.TraderPosition{},
	},
	{
		ID:         "st_004",
		Address:    "0xb8901acb165ed027e32754e0ffe830802919727f",
		TotalValue: 3200000,
		PnL:        890000,
		WinRate:    0.81,
		TradeCount: 412,
		Positions: []domain.TraderPosition{
			{MarketID: "poly_ai_regulation", Side: "no", Size: 100000, Value: 145000, EntryPrice: 0.32},
			{MarketID: "kalshi_inflation", Side: "yes", Size: 80000, Value: 92000, EntryPrice: 0.65},
		},
	},
	{
		ID:         "st_005",
		Address:    "0x5a0b54d5dc17e0aadc383d2db43b0a0d3e029c4c",
		TotalValue: 750000,
		PnL:        125000,
		WinRate:    0.65,
		TradeCount: 178,
		Positions: []domain.TraderPosition{
			{MarketID: "poly_superbowl", Side: "yes", Size: 30000, Value: 42000, EntryPrice: 0.55},
		},
	},
}

// Directory serves lookups over the trader dataset.
type Directory struct{}

// NewDirectory creates a Directory over the built-in dataset.
func NewDirectory() *Directory {
	return &Directory{}
}

// List returns trader summaries sorted by the given metric descending.
// sortBy is one of "total_value" (the default), "pnl", or "win_rate".
func (d *Directory) List(ctx context.Context, sortBy string, skip, limit int) []domain.TraderSummary {
	traders := make([]domain.SmartTrader, len(dataset))
	copy(traders, dataset)

	switch sortBy {
	case "pnl":
		sort.SliceStable(traders, func(i, j int) bool { return traders[i].PnL > traders[j].PnL })
	case "win_rate":
		sort.SliceStable(traders, func(i, j int) bool { return traders[i].WinRate > traders[j].WinRate })
	default:
		sort.SliceStable(traders, func(i, j int) bool { return traders[i].TotalValue > traders[j].TotalValue })
	}

	if skip > len(traders) {
		skip = len(traders)
	}
	traders = traders[skip:]
	if limit > 0 && len(traders) > limit {
		traders = traders[:limit]
	}

	out := make([]domain.TraderSummary, len(traders))
	for i, t := range traders {
		out[i] = t.Summary()
	}
	return out
}

// Get returns one trader by ID.
func (d *Directory) Get(ctx context.Context, id string) (domain.SmartTrader, error) {
	for _, t := range dataset {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.SmartTrader{}, fmt.Errorf("traders: %s: %w", id, domain.ErrNotFound)
}

// Stats aggregates the whole dataset. The top performer is the trader
// with the highest profit.
func (d *Directory) Stats(ctx context.Context) domain.TraderStats {
	stats := domain.TraderStats{
		TotalTraders: len(dataset),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	top := dataset[0]
	for _, t := range dataset {
		stats.TotalValue += t.TotalValue
		stats.TotalPnL += t.PnL
		stats.AverageWinRate += t.WinRate
		if t.PnL > top.PnL {
			top = t
		}
	}
	stats.AverageWinRate /= float64(len(dataset))
	stats.TopPerformer = top.ID
	return stats
}

// HoldersOf returns the traders holding a position in the given market,
// with the held position attached.
func (d *Directory) HoldersOf(ctx context.Context, marketID string) []domain.SmartTrader {
	var out []domain.SmartTrader
	for _, t := range dataset {
		for _, p := range t.Positions {
			if p.MarketID == marketID {
				held := t
				held.Positions = []domain.TraderPosition{p}
				out = append(out, held)
				break
			}
		}
	}
	return out
}
