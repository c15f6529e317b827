package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// CartCleanupHandler empties a user's cart once their order has been placed.
// Lines added after the order are kept.
type CartCleanupHandler struct {
	storeServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewCartCleanupHandler(storeServiceURL string, client *http.Client, logger *slog.Logger) *CartCleanupHandler {
	return &CartCleanupHandler{
		storeServiceURL: storeServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

// Handle processes one order.placed payload. Malformed payloads are logged and
// skipped; a failing store call is returned so the message is retried.
func (h *CartCleanupHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("skipping malformed order placed event", "error", err)
		return nil
	}

	if event.UserID == "" {
		h.logger.Error("skipping order placed event without user", "order_id", event.OrderID)
		return nil
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	if err := h.clearCart(ctx, event.UserID, event.Timestamp); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "order_id", event.OrderID, "user_id", event.UserID)
		return fmt.Errorf("clear cart: %w", err)
	}

	h.logger.Info("cart cleared after order", "order_id", event.OrderID, "user_id", event.UserID)
	return nil
}

func (h *CartCleanupHandler) clearCart(ctx context.Context, userID string, placedAt time.Time) error {
	target := h.storeServiceURL + "/cart"
	if !placedAt.IsZero() {
		target += "?" + url.Values{"before": {placedAt.UTC().Format(time.RFC3339Nano)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	auth.SetHeaders(req.Header, auth.Identity{UserID: userID})

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("store service returned status %d", resp.StatusCode)
	}
}
