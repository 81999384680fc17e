package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// TraderDirectory defines what the trader handler needs from the
// smart-trader dataset.
type TraderDirectory interface {
	List(ctx context.Context, sortBy string, skip, limit int) []domain.TraderSummary
	Get(ctx context.Context, id string) (domain.SmartTrader, error)
	HoldersOf(ctx context.Context, marketID string) []domain.SmartTrader
	Stats(ctx context.Context) domain.TraderStats
}

// TraderHandler serves the smart-trader endpoints.
type TraderHandler struct {
	traders TraderDirectory
	logger  *slog.Logger
}

// NewTraderHandler creates a TraderHandler.
func NewTraderHandler(traders TraderDirectory, logger *slog.Logger) *TraderHandler {
	return &TraderHandler{
		traders: traders,
		logger:  logHandler(logger, "trader"),
	}
}

// ListTraders returns tracked traders sorted by a performance metric.
// GET /api/smart-traders?sort_by=total_value&skip=0&limit=20
func (h *TraderHandler) ListTraders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortBy := q.Get("sort_by")
	switch sortBy {
	case "", "total_value", "pnl", "win_rate":
	default:
		writeError(w, http.StatusBadRequest, "sort_by must be one of total_value, pnl, win_rate")
		return
	}

	skip := 0
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	limit := intQuery(r, "limit", 20)

	writeJSON(w, http.StatusOK, map[string]any{
		"traders": h.traders.List(r.Context(), sortBy, skip, limit),
	})
}

// GetTrader returns one trader with its full position list.
// GET /api/smart-traders/{id}
func (h *TraderHandler) GetTrader(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing trader id")
		return
	}

	trader, err := h.traders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trader not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get trader failed",
			slog.String("trader_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get trader")
		return
	}

	writeJSON(w, http.StatusOK, trader)
}

// GetPositions returns one trader's open positions with their summed value.
// GET /api/smart-traders/{id}/positions
func (h *TraderHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	trader, err := h.traders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trader not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get trader positions failed",
			slog.String("trader_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get positions")
		return
	}

	var total float64
	for _, p := range trader.Positions {
		total += p.Value
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trader_id":            id,
		"positions":            trader.Positions,
		"total_position_value": total,
	})
}

// MarketHolders returns the tracked traders holding the given market,
// with the combined value of their positions there.
// GET /api/smart-traders/market/{market_id}/holders
func (h *TraderHandler) MarketHolders(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "market_id")

	holders := h.traders.HoldersOf(r.Context(), marketID)
	type holder struct {
		TraderID string                `json:"trader_id"`
		Address  string                `json:"address"`
		WinRate  float64               `json:"win_rate"`
		Position domain.TraderPosition `json:"position"`
	}
	out := make([]holder, 0, len(holders))
	var total float64
	for _, t := range holders {
		out = append(out, holder{
			TraderID: t.ID,
			Address:  t.Address,
			WinRate:  t.WinRate,
			Position: t.Positions[0],
		})
		total += t.Positions[0].Value
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id":         marketID,
		"smart_holders":     out,
		"total_smart_value": total,
	})
}

// StatsSummary returns aggregate figures for the whole tracked set.
// GET /api/smart-traders/stats/summary
func (h *TraderHandler) StatsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.traders.Stats(r.Context()))
}
