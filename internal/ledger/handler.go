package ledger

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/scandine/scandine/internal/auth"
	"github.com/scandine/scandine/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type revenueResponse struct {
	Revenue   domain.Money `json:"revenue"`
	LastReset time.Time    `json:"last_reset"`
	Message   string       `json:"message,omitempty"`
}

// HandleGetRevenue returns the current running total, creating the
// ledger on a restaurant's first read.
func (h *Handler) HandleGetRevenue(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())

	led, err := h.repo.GetOrCreate(r.Context(), restaurantID)
	if err != nil {
		h.logger.Error("failed to get revenue", "error", err, "restaurant_id", restaurantID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, revenueResponse{
		Revenue:   led.Revenue,
		LastReset: led.LastReset,
	})
}

// HandleResetRevenue zeroes the running total. There is no undo; the
// only audit trail is the reset timestamp.
func (h *Handler) HandleResetRevenue(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())

	led, err := h.repo.Reset(r.Context(), restaurantID)
	if err != nil {
		h.logger.Error("failed to reset revenue", "error", err, "restaurant_id", restaurantID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("revenue reset", "restaurant_id", restaurantID)
	h.writeJSON(w, http.StatusOK, revenueResponse{
		Message:   "revenue reset successfully",
		Revenue:   led.Revenue,
		LastReset: led.LastReset,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
