package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// UserHandler serves the per-user watchlist and notification endpoints.
// The user is identified by a path parameter; there is no auth layer in
// front of these routes.
type UserHandler struct {
	watchlists    domain.WatchlistStore
	notifications domain.NotificationStore
	logger        *slog.Logger
}

// NewUserHandler creates a UserHandler over the given stores.
func NewUserHandler(watchlists domain.WatchlistStore, notifications domain.NotificationStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		watchlists:    watchlists,
		notifications: notifications,
		logger:        logHandler(logger, "user"),
	}
}

// GetWatchlist returns the user's watchlist. A user without one gets an
// empty watchlist, not a 404.
// GET /api/users/{user_id}/watchlist
func (h *UserHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "user_id")

	wl, err := h.watchlists.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, domain.Watchlist{
				UserID:    userID,
				MarketIDs: []string{},
			})
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get watchlist failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get watchlist")
		return
	}

	writeJSON(w, http.StatusOK, wl)
}

// putWatchlistRequest is the body for replacing a watchlist wholesale.
type putWatchlistRequest struct {
	MarketIDs []string `json:"market_ids"`
}

// PutWatchlist replaces the user's watchlist.
// POST /api/users/{user_id}/watchlist
func (h *UserHandler) PutWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "user_id")

	var req putWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MarketIDs == nil {
		req.MarketIDs = []string{}
	}

	wl, err := h.watchlists.Put(r.Context(), userID, req.MarketIDs)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: put watchlist failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to save watchlist")
		return
	}

	writeJSON(w, http.StatusOK, wl)
}

// addMarketRequest is the body for appending one market to a watchlist.
type addMarketRequest struct {
	MarketID string `json:"market_id"`
}

// AddToWatchlist appends one market to the user's watchlist, creating
// the watchlist if needed. Adding a market already present is a no-op.
// POST /api/users/{user_id}/watchlist/add
func (h *UserHandler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "user_id")

	var req addMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MarketID == "" {
		writeError(w, http.StatusBadRequest, "market_id required")
		return
	}

	wl, err := h.watchlists.AddMarket(r.Context(), userID, req.MarketID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: add to watchlist failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to update watchlist")
		return
	}

	writeJSON(w, http.StatusOK, wl)
}

// RemoveFromWatchlist removes one market from the user's watchlist.
// DELETE /api/users/{user_id}/watchlist/{market_id}
func (h *UserHandler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "user_id")
	marketID := pathParam(r, "market_id")

	wl, err := h.watchlists.RemoveMarket(r.Context(), userID, marketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "watchlist not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: remove from watchlist failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to update watchlist")
		return
	}

	writeJSON(w, http.StatusOK, wl)
}

// ListNotifications returns the user's notification rules.
// GET /api/users/{user_id}/notifications?active_only=true
func (h *UserHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "user_id")
	activeOnly := r.URL.Query().Get("active_only") == "true"

	ns, err := h.notifications.List(r.Context(), userID, activeOnly)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list notifications failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if ns == nil {
		ns = []domain.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": ns})
}

// createNotificationRequest is the body for creating a notification rule.
type createNotificationRequest struct {
	MarketID  string  `json:"market_id"`
	Type      string  `json:"type"`
	Threshold float64 `json:"threshold"`
}

// CreateNotification creates a notification rule for the user.
// POST /api/users/{user_id}/notifications
func (h *UserHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "user_id")

	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MarketID == "" {
		writeError(w, http.StatusBadRequest, "market_id required")
		return
	}
	switch domain.NotificationType(req.Type) {
	case domain.NotificationOISpike, domain.NotificationVolumeSpike,
		domain.NotificationProbabilityChange, domain.NotificationPriceAlert:
	default:
		writeError(w, http.StatusBadRequest, "unknown notification type")
		return
	}

	n, err := h.notifications.Create(r.Context(), domain.Notification{
		UserID:    userID,
		MarketID:  req.MarketID,
		Type:      domain.NotificationType(req.Type),
		Threshold: req.Threshold,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create notification failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create notification")
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

// ToggleNotification enables or disables a notification rule.
// PATCH /api/users/{user_id}/notifications/{id}?is_active=false
func (h *UserHandler) ToggleNotification(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	active := r.URL.Query().Get("is_active") != "false"

	n, err := h.notifications.SetActive(r.Context(), id, active)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: toggle notification failed",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}

	writeJSON(w, http.StatusOK, n)
}

// DeleteNotification removes a notification rule.
// DELETE /api/users/{user_id}/notifications/{id}
func (h *UserHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	if err := h.notifications.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: delete notification failed",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
