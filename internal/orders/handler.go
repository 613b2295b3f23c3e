package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/scandine/scandine/internal/auth"
	"github.com/scandine/scandine/internal/domain"
	"github.com/scandine/scandine/internal/messaging"
	"github.com/scandine/scandine/internal/report"
)

type Handler struct {
	repo            *OrderRepository
	createdProducer *messaging.Producer
	paidProducer    *messaging.Producer
	encoder         report.Encoder
	logger          *slog.Logger
}

func NewHandler(repo *OrderRepository, createdProducer, paidProducer *messaging.Producer, encoder report.Encoder, logger *slog.Logger) *Handler {
	return &Handler{
		repo:            repo,
		createdProducer: createdProducer,
		paidProducer:    paidProducer,
		encoder:         encoder,
		logger:          logger,
	}
}

type createOrderRequest struct {
	RestaurantID string            `json:"restaurant_id"`
	TableNumber  int               `json:"table_number"`
	Items        []domain.LineItem `json:"items"`
	TotalPrice   domain.Money      `json:"total_price"`
}

// HandleCreate is the customer-facing submission. It is unauthenticated:
// the customer scanned a QR code, there is no account. The total is
// recomputed server-side, never taken from the client as-is.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := domain.NewOrder(req.RestaurantID, req.TableNumber, req.Items, req.TotalPrice, time.Now())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.createdProducer != nil {
		event := domain.OrderCreatedEvent{
			OrderID:      order.ID,
			RestaurantID: order.RestaurantID,
			TableNumber:  order.TableNumber,
			Items:        order.Items,
			Total:        order.Total,
			Timestamp:    order.CreatedAt,
		}
		if err := h.createdProducer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "restaurant_id", order.RestaurantID, "table", order.TableNumber, "total", int64(order.Total))
	h.writeJSON(w, http.StatusCreated, order)
}

// HandleGet serves the public order-confirmation lookup. Deliberately
// unscoped: the customer holds only the order id.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())

	orders, err := h.repo.FindActive(r.Context(), restaurantID)
	if err != nil {
		h.logger.Error("failed to list active orders", "error", err, "restaurant_id", restaurantID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("active orders listed", "restaurant_id", restaurantID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListCompleted(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())

	orders, err := h.repo.FindCompletedThisMonth(r.Context(), restaurantID, time.Now())
	if err != nil {
		h.logger.Error("failed to list completed orders", "error", err, "restaurant_id", restaurantID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("completed orders listed", "restaurant_id", restaurantID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("order deleted", "order_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkPaid runs the pending -> paid transition: status change,
// ledger credit, and history append in one atomic unit. The response
// carries the new revenue total so the dashboard can update in place.
func (h *Handler) HandleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}
	restaurantID := auth.RestaurantID(r.Context())

	order, led, err := h.repo.Transition(r.Context(), id, restaurantID, domain.OrderStatusPaid)
	if err != nil {
		h.logTransitionFailure(err, id, restaurantID, domain.OrderStatusPaid)
		h.writeDomainError(w, err)
		return
	}

	h.publishPaid(r, order)

	h.logger.Info("order marked paid", "order_id", id, "restaurant_id", restaurantID, "revenue", int64(led.Revenue))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "order marked as paid",
		"order":   order,
		"revenue": led.Revenue,
	})
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// HandleUpdateStatus accepts a target status and dispatches it through
// the same transition table as the dedicated routes, so there is exactly
// one path into the ledger.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	restaurantID := auth.RestaurantID(r.Context())

	order, _, err := h.repo.Transition(r.Context(), id, restaurantID, req.Status)
	if err != nil {
		h.logTransitionFailure(err, id, restaurantID, req.Status)
		h.writeDomainError(w, err)
		return
	}

	if order.Status == domain.OrderStatusPaid {
		h.publishPaid(r, order)
	}

	h.logger.Info("order status updated", "order_id", id, "restaurant_id", restaurantID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "order status updated",
		"order":   order,
	})
}

// HandleMonthlyReport streams the month's orders as an xlsx attachment.
// Months are 1-based: month=3&year=2024 is March 2024.
func (h *Handler) HandleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		h.writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 {
		h.writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	start, end := report.MonthRange(year, time.Month(month))
	orders, err := h.repo.FindByDateRange(r.Context(), restaurantID, start, end)
	if err != nil {
		h.logger.Error("failed to query report range", "error", err, "restaurant_id", restaurantID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	data, err := h.encoder.Encode(report.Rows(orders))
	if err != nil {
		h.logger.Error("failed to encode report", "error", err, "restaurant_id", restaurantID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("monthly report generated", "restaurant_id", restaurantID, "month", month, "year", year, "orders", len(orders))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=orders-%d-%d.xlsx", month, year))
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write report", "error", err)
	}
}

func (h *Handler) publishPaid(r *http.Request, order *domain.Order) {
	if h.paidProducer == nil {
		return
	}
	event := domain.OrderPaidEvent{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		TableNumber:  order.TableNumber,
		Total:        order.Total,
		Timestamp:    time.Now().UTC(),
	}
	if err := h.paidProducer.Publish(r.Context(), order.ID, event); err != nil {
		h.logger.Error("failed to publish order paid event", "error", err, "order_id", order.ID)
	}
}

func (h *Handler) logTransitionFailure(err error, id, restaurantID string, to domain.OrderStatus) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrInvalidTransition), domain.IsValidation(err):
		h.logger.Info("transition rejected", "order_id", id, "restaurant_id", restaurantID, "target", to, "reason", err)
	default:
		h.logger.Error("transition failed", "error", err, "order_id", id, "restaurant_id", restaurantID, "target", to)
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConflict):
		h.writeError(w, http.StatusConflict, "conflicting update, please retry")
	default:
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
