package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// PlatformHandler serves the single-platform passthrough endpoints. One
// instance exists per configured source. A listings failure degrades to
// an empty set so a provider outage never turns into a 5xx here.
type PlatformHandler struct {
	source domain.MarketSource
	logger *slog.Logger
}

// NewPlatformHandler creates a handler bound to one upstream source.
func NewPlatformHandler(source domain.MarketSource, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{
		source: source,
		logger: logHandler(logger, string(source.Platform())),
	}
}

// ListMarkets returns markets from this platform only.
// GET /api/{platform}/markets?limit=50&status=open
func (h *PlatformHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	f := domain.ListingsFilter{
		Limit:  intQuery(r, "limit", 50),
		Status: domain.MarketStatus(r.URL.Query().Get("status")),
	}

	markets, err := h.source.FetchListings(r.Context(), f)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: platform listings failed",
			slog.String("error", err.Error()),
		)
		markets = nil
	}
	if markets == nil {
		markets = []domain.Market{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"platform": h.source.Platform(),
		"markets":  markets,
		"count":    len(markets),
	})
}

// GetMarket returns a single market by its native (un-namespaced) ID.
// GET /api/{platform}/markets/{id}
func (h *PlatformHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.source.FetchOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: platform get market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// History returns recent price history for a market, for platforms
// whose source exposes it.
// GET /api/{platform}/markets/{id}/history?limit=100
func (h *PlatformHandler) History(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	hs, ok := h.source.(domain.HistorySource)
	if !ok {
		writeError(w, http.StatusNotFound, "history not available for this platform")
		return
	}

	points, err := hs.FetchHistory(r.Context(), id, intQuery(r, "limit", 100))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: platform history failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to get history")
		return
	}
	if points == nil {
		points = []domain.HistoryPoint{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"platform":  h.source.Platform(),
		"market_id": id,
		"history":   points,
	})
}
