// Package aggregator fans out to every configured market source,
// merges the normalized records, and serves cached derived views
// (trending, top-N, stats) on top of the merged set.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oddsradar/oddsradar/internal/cache/memory"
	"github.com/oddsradar/oddsradar/internal/domain"
)

// Internal sampling limits used when computing derived views. Derived
// views rank a wider sample than the caller's limit so the cut is
// meaningful.
const (
	trendingSample   = 100
	topSample        = 100
	statsSample      = 500
	searchSample     = 200
	categorySample   = 200
	categoriesSample = 500
)

const defaultLimit = 50

// Caches bundles the three independently configured cache namespaces the
// aggregator writes to.
type Caches struct {
	// Markets holds single canonical records keyed by namespaced ID.
	Markets *memory.Cache[string, domain.Market]
	// Views holds derived views keyed by operation name + parameters.
	Views *memory.Cache[string, any]
	// History holds historical series keyed by market ID + limit.
	History *memory.Cache[string, []domain.HistoryPoint]
}

// Aggregator merges canonical market records from all sources.
type Aggregator struct {
	sources []domain.MarketSource
	caches  Caches
	history domain.HistoryStore
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Aggregator over the given sources. Source order is
// significant: merged results keep it, and stable sorts preserve it on
// ties. history may be nil; it backs History for platforms whose source
// has no history capability.
func New(sources []domain.MarketSource, caches Caches, history domain.HistoryStore, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		caches:  caches,
		history: history,
		logger:  logger.With(slog.String("component", "aggregator")),
		now:     time.Now,
	}
}

// FetchAll fans out to every source passing the platform filter,
// concurrently, and merges the results. A failed source contributes an
// empty set; the failure is logged, never surfaced. Category and status
// filters are applied after the merge since not every upstream supports
// them. The merged set is sorted by volume_24h descending, stable with
// respect to merge order. FetchAll itself is uncached; it is the
// cache-filling primitive for the derived views.
func (a *Aggregator) FetchAll(ctx context.Context, f domain.MarketFilter) []domain.Market {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var selected []domain.MarketSource
	for _, src := range a.sources {
		if f.Platform != "" && src.Platform() != f.Platform {
			continue
		}
		selected = append(selected, src)
	}

	results := make([][]domain.Market, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range selected {
		g.Go(func() error {
			records, err := src.FetchListings(gctx, domain.ListingsFilter{
				Limit:  limit,
				Status: f.Status,
			})
			if err != nil {
				a.logger.Warn("source fetch failed",
					slog.String("platform", string(src.Platform())),
					slog.String("error", err.Error()),
				)
				return nil
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Market
	for _, records := range results {
		merged = append(merged, records...)
	}

	if f.Category != "" {
		merged = filterInPlace(merged, func(m domain.Market) bool {
			return strings.EqualFold(m.Category, f.Category)
		})
	}
	if f.Status != "" {
		merged = filterInPlace(merged, func(m domain.Market) bool {
			return m.Status == f.Status
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Volume24h > merged[j].Volume24h
	})

	return merged
}

// Trending returns the markets with the largest absolute 24h change,
// cached in the derived-view namespace.
func (a *Aggregator) Trending(ctx context.Context, limit int) []domain.Market {
	key := fmt.Sprintf("trending:%d", limit)
	if cached, ok := viewHit[[]domain.Market](a.caches.Views, key); ok {
		return cached
	}

	all := a.FetchAll(ctx, domain.MarketFilter{Limit: trendingSample})
	sort.SliceStable(all, func(i, j int) bool {
		return math.Abs(all[i].Change24h) > math.Abs(all[j].Change24h)
	})
	out := head(all, limit)

	a.caches.Views.Set(key, out)
	return out
}

// TopByOpenInterest returns the markets with the highest open interest.
func (a *Aggregator) TopByOpenInterest(ctx context.Context, limit int) []domain.Market {
	key := fmt.Sprintf("top_oi:%d", limit)
	if cached, ok := viewHit[[]domain.Market](a.caches.Views, key); ok {
		return cached
	}

	all := a.FetchAll(ctx, domain.MarketFilter{Limit: topSample})
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OpenInterest > all[j].OpenInterest
	})
	out := head(all, limit)

	a.caches.Views.Set(key, out)
	return out
}

// TopByVolume returns the markets with the highest 24h volume.
func (a *Aggregator) TopByVolume(ctx context.Context, limit int) []domain.Market {
	key := fmt.Sprintf("top_volume:%d", limit)
	if cached, ok := viewHit[[]domain.Market](a.caches.Views, key); ok {
		return cached
	}

	// FetchAll already sorts by volume_24h.
	out := head(a.FetchAll(ctx, domain.MarketFilter{Limit: topSample}), limit)

	a.caches.Views.Set(key, out)
	return out
}

// GlobalStats sums open interest and 24h volume and counts records by
// status and platform over a single merged fetch, so the totals always
// correspond to one cache generation.
func (a *Aggregator) GlobalStats(ctx context.Context) domain.GlobalStats {
	const key = "global_stats"
	if cached, ok := viewHit[domain.GlobalStats](a.caches.Views, key); ok {
		return cached
	}

	stats := a.computeStats(a.FetchAll(ctx, domain.MarketFilter{Limit: statsSample}))

	a.caches.Views.Set(key, stats)
	return stats
}

func (a *Aggregator) computeStats(all []domain.Market) domain.GlobalStats {
	stats := domain.GlobalStats{
		TotalMarkets: len(all),
		UpdatedAt:    a.now().UTC(),
	}
	for _, m := range all {
		stats.TotalOpenInterest += m.OpenInterest
		stats.TotalVolume24h += m.Volume24h
		if m.Status == domain.MarketStatusOpen {
			stats.ActiveMarkets++
		}
		switch m.Platform {
		case domain.PlatformPolymarket:
			stats.PolymarketCount++
		case domain.PlatformKalshi:
			stats.KalshiCount++
		}
	}
	return stats
}

// Categories returns the sorted set of distinct categories across the
// merged record set.
func (a *Aggregator) Categories(ctx context.Context) []string {
	const key = "categories"
	if cached, ok := viewHit[[]string](a.caches.Views, key); ok {
		return cached
	}

	seen := make(map[string]bool)
	for _, m := range a.FetchAll(ctx, domain.MarketFilter{Limit: categoriesSample}) {
		if m.Category != "" {
			seen[m.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)

	a.caches.Views.Set(key, out)
	return out
}

// Search matches query case-insensitively against title, description,
// and category. Deliberately uncached: the query space is unbounded, so
// caching per query would defeat the bounded TTL caches.
func (a *Aggregator) Search(ctx context.Context, query string, limit int) []domain.Market {
	q := strings.ToLower(query)

	var out []domain.Market
	for _, m := range a.FetchAll(ctx, domain.MarketFilter{Limit: searchSample}) {
		if strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Description), q) ||
			strings.Contains(strings.ToLower(m.Category), q) {
			out = append(out, m)
		}
	}
	return head(out, limit)
}

// MarketsByCategory returns markets in the given category, preserving
// the merged volume ordering.
func (a *Aggregator) MarketsByCategory(ctx context.Context, category string, limit int) []domain.Market {
	all := a.FetchAll(ctx, domain.MarketFilter{Limit: categorySample, Category: category})
	return head(all, limit)
}

// GetByID routes a namespaced market ID to its source by prefix and
// returns the record, caching single records in the listings namespace.
// Unknown prefixes and absent records report domain.ErrNotFound.
func (a *Aggregator) GetByID(ctx context.Context, id string) (domain.Market, error) {
	if m, ok := a.caches.Markets.Get(id); ok {
		return m, nil
	}

	platform, nativeID, ok := splitID(id)
	if !ok {
		return domain.Market{}, fmt.Errorf("aggregator: market %s: %w", id, domain.ErrNotFound)
	}

	for _, src := range a.sources {
		if src.Platform() != platform {
			continue
		}
		m, err := src.FetchOne(ctx, nativeID)
		if err != nil {
			// Upstream failures stay inside the aggregation layer;
			// callers only ever see presence or absence.
			if !errors.Is(err, domain.ErrNotFound) {
				a.logger.Warn("single market fetch failed",
					slog.String("market_id", id),
					slog.String("error", err.Error()),
				)
			}
			return domain.Market{}, fmt.Errorf("aggregator: market %s: %w", id, domain.ErrNotFound)
		}
		a.caches.Markets.Set(id, m)
		return m, nil
	}

	return domain.Market{}, fmt.Errorf("aggregator: no source for platform %s: %w", platform, domain.ErrNotFound)
}

// History returns the historical series for a market, served from the
// long-TTL history cache. Platforms whose source has no history
// capability fall back to the stored rows written by the ingestion
// side; with no store configured they yield an empty series.
func (a *Aggregator) History(ctx context.Context, id string, limit int) ([]domain.HistoryPoint, error) {
	key := fmt.Sprintf("history:%s:%d", id, limit)
	if cached, ok := a.caches.History.Get(key); ok {
		return cached, nil
	}

	platform, nativeID, ok := splitID(id)
	if !ok {
		return nil, fmt.Errorf("aggregator: market %s: %w", id, domain.ErrNotFound)
	}

	for _, src := range a.sources {
		if src.Platform() != platform {
			continue
		}
		hs, ok := src.(domain.HistorySource)
		if !ok {
			return a.storedHistory(ctx, id, limit), nil
		}
		points, err := hs.FetchHistory(ctx, nativeID, limit)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				a.logger.Warn("history fetch failed",
					slog.String("market_id", id),
					slog.String("error", err.Error()),
				)
			}
			return nil, fmt.Errorf("aggregator: history %s: %w", id, domain.ErrNotFound)
		}
		a.caches.History.Set(key, points)
		return points, nil
	}

	return nil, fmt.Errorf("aggregator: no source for platform %s: %w", platform, domain.ErrNotFound)
}

// storedHistory reads persisted history rows. Store failures degrade to
// an empty series.
func (a *Aggregator) storedHistory(ctx context.Context, id string, limit int) []domain.HistoryPoint {
	if a.history == nil {
		return []domain.HistoryPoint{}
	}
	points, err := a.history.List(ctx, id, limit)
	if err != nil {
		a.logger.Warn("stored history read failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		return []domain.HistoryPoint{}
	}
	if points == nil {
		points = []domain.HistoryPoint{}
	}
	return points
}

// splitID maps a namespaced market ID to its platform and native ID.
func splitID(id string) (domain.Platform, string, bool) {
	switch {
	case strings.HasPrefix(id, "poly_"):
		return domain.PlatformPolymarket, strings.TrimPrefix(id, "poly_"), true
	case strings.HasPrefix(id, "kalshi_"):
		return domain.PlatformKalshi, strings.TrimPrefix(id, "kalshi_"), true
	default:
		return "", "", false
	}
}

// viewHit reads a typed value out of the untyped derived-view cache. A
// type mismatch is treated as a miss.
func viewHit[T any](views *memory.Cache[string, any], key string) (T, bool) {
	var zero T
	v, ok := views.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func head(s []domain.Market, n int) []domain.Market {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func filterInPlace(s []domain.Market, keep func(domain.Market) bool) []domain.Market {
	out := s[:0]
	for _, m := range s {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
