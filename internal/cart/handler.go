package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
)

type Reader interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string, before time.Time) error
}

type Adder interface {
	AddToCart(ctx context.Context, userID string, req domain.CartItemCreate) (*domain.CartLineItem, error)
}

type Handler struct {
	carts  Reader
	adder  Adder
	logger *slog.Logger
}

func NewHandler(carts Reader, adder Adder, logger *slog.Logger) *Handler {
	return &Handler{
		carts:  carts,
		adder:  adder,
		logger: logger,
	}
}

type cartResponse struct {
	*domain.Cart
	Total decimal.Decimal `json:"total"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	cart, err := h.carts.Get(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "failed to get cart", "user_id", id.UserID)
		return
	}

	h.writeJSON(w, http.StatusOK, cartResponse{Cart: cart, Total: cart.Total()})
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req domain.CartItemCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.adder.AddToCart(r.Context(), id.UserID, req)
	if err != nil {
		h.fail(w, err, "failed to add item to cart", "user_id", id.UserID, "product_id", req.ProductID)
		return
	}

	h.logger.Info("cart item added", "user_id", id.UserID, "product_id", item.ProductID, "quantity", item.Quantity)

	cart, err := h.carts.Get(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, err, "failed to get cart", "user_id", id.UserID)
		return
	}

	h.writeJSON(w, http.StatusCreated, cartResponse{Cart: cart, Total: cart.Total()})
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	itemID := r.PathValue("id")

	if err := h.carts.RemoveItem(r.Context(), id.UserID, itemID); err != nil {
		h.fail(w, err, "failed to remove cart item", "user_id", id.UserID, "item_id", itemID)
		return
	}

	h.logger.Info("cart item removed", "user_id", id.UserID, "item_id", itemID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var before time.Time
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "before must be an RFC 3339 timestamp")
			return
		}
		before = t
	}

	if err := h.carts.Clear(r.Context(), id.UserID, before); err != nil {
		h.fail(w, err, "failed to clear cart", "user_id", id.UserID)
		return
	}

	h.logger.Info("cart cleared", "user_id", id.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error, msg string, args ...any) {
	status := httperr.Status(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, append(args, "error", err)...)
	} else {
		h.logger.Info(msg, append(args, "error", err)...)
	}
	h.writeError(w, status, httperr.Message(err))
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
