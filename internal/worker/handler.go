// Package worker turns order.paid events into receipt notifications.
// Delivery goes through the external email collaborator; this process
// never touches order or ledger state.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/scandine/scandine/internal/domain"
)

type ReceiptHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewReceiptHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *ReceiptHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPaidEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order paid event: %w", err)
	}

	h.logger.Info("processing order paid event", "order_id", event.OrderID, "restaurant_id", event.RestaurantID)

	if err := h.sendReceipt(ctx, event); err != nil {
		return fmt.Errorf("send receipt for order %s: %w", event.OrderID, err)
	}

	h.logger.Info("receipt sent", "order_id", event.OrderID)
	return nil
}

func (h *ReceiptHandler) sendReceipt(ctx context.Context, event domain.OrderPaidEvent) error {
	body := map[string]string{
		"to":      event.RestaurantID + "@notifications.scandine.local",
		"subject": "Receipt for order " + event.OrderID,
		"body": fmt.Sprintf("Table %d settled order %s for %s.",
			event.TableNumber, event.OrderID, event.Total),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
