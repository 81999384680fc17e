package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// MarketAggregator defines the methods the market handler requires from the
// aggregation layer. It is declared locally so the handler package does not
// depend on the concrete aggregator implementation.
type MarketAggregator interface {
	FetchAll(ctx context.Context, f domain.MarketFilter) []domain.Market
	Trending(ctx context.Context, limit int) []domain.Market
	TopByOpenInterest(ctx context.Context, limit int) []domain.Market
	TopByVolume(ctx context.Context, limit int) []domain.Market
	GlobalStats(ctx context.Context) domain.GlobalStats
	Categories(ctx context.Context) []string
	Search(ctx context.Context, query string, limit int) []domain.Market
	MarketsByCategory(ctx context.Context, category string, limit int) []domain.Market
	GetByID(ctx context.Context, id string) (domain.Market, error)
	History(ctx context.Context, id string, limit int) ([]domain.HistoryPoint, error)
}

// MarketHandler serves the cross-platform market endpoints.
type MarketHandler struct {
	markets MarketAggregator
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given aggregator and
// logger.
func NewMarketHandler(markets MarketAggregator, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logHandler(logger, "market"),
	}
}

// listMarketsResponse wraps the list endpoint output with paging metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// ListMarkets returns merged markets with optional filters and pagination.
// GET /api/markets?platform=&category=&status=&search=&page=1&per_page=50
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := parsePageOpts(r)

	var markets []domain.Market
	if search := q.Get("search"); search != "" {
		markets = h.markets.Search(r.Context(), search, 0)
	} else {
		markets = h.markets.FetchAll(r.Context(), domain.MarketFilter{
			Platform: domain.Platform(q.Get("platform")),
			Category: q.Get("category"),
			Status:   domain.MarketStatus(q.Get("status")),
			Limit:    opts.Page * opts.PerPage,
		})
	}

	total := len(markets)
	start := (opts.Page - 1) * opts.PerPage
	if start > total {
		start = total
	}
	end := start + opts.PerPage
	if end > total {
		end = total
	}

	page := markets[start:end]
	if page == nil {
		page = []domain.Market{}
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: page,
		Total:   total,
		Page:    opts.Page,
		PerPage: opts.PerPage,
	})
}

// summarize reduces markets to the summary shape the ranked list
// endpoints respond with.
func summarize(markets []domain.Market) []domain.MarketSummary {
	out := make([]domain.MarketSummary, len(markets))
	for i, m := range markets {
		out[i] = m.Summary()
	}
	return out
}

// Trending returns the markets with the largest 24h movement.
// GET /api/markets/trending?limit=20
func (h *MarketHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	writeJSON(w, http.StatusOK, map[string]any{
		"markets": summarize(h.markets.Trending(r.Context(), limit)),
	})
}

// TopOpenInterest returns the markets ranked by open interest.
// GET /api/markets/top-oi?limit=20
func (h *MarketHandler) TopOpenInterest(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	writeJSON(w, http.StatusOK, map[string]any{
		"markets": summarize(h.markets.TopByOpenInterest(r.Context(), limit)),
		"metric":  "open_interest",
	})
}

// TopVolume returns the markets ranked by 24h volume.
// GET /api/markets/top-volume?limit=20
func (h *MarketHandler) TopVolume(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	writeJSON(w, http.StatusOK, map[string]any{
		"markets": summarize(h.markets.TopByVolume(r.Context(), limit)),
		"metric":  "volume",
	})
}

// Categories returns the distinct categories across all platforms.
// GET /api/markets/categories
func (h *MarketHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": h.markets.Categories(r.Context()),
	})
}

// ByCategory returns markets in a single category.
// GET /api/markets/category/{category}?limit=50
func (h *MarketHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := pathParam(r, "category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing category")
		return
	}
	limit := intQuery(r, "limit", 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"markets":  h.markets.MarketsByCategory(r.Context(), category, limit),
	})
}

// Stats returns aggregate totals across all platforms.
// GET /api/markets/stats
func (h *MarketHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.markets.GlobalStats(r.Context()))
}

// GetMarket returns a single market by its namespaced ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.markets.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// History returns the price history series for a market.
// GET /api/markets/{id}/history?limit=100
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}
	limit := intQuery(r, "limit", 100)

	points, err := h.markets.History(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: market history failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to get market history")
		return
	}
	if points == nil {
		points = []domain.HistoryPoint{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id": id,
		"history":   points,
	})
}
