package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type Store interface {
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, skip, limit int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	repo      Store
	publisher Publisher
	metrics   *telemetry.StoreMetrics
	logger    *slog.Logger
}

// NewHandler builds the order handler. publisher may be nil, in which case no
// order.placed events are emitted.
func NewHandler(repo Store, publisher Publisher, metrics *telemetry.StoreMetrics, logger *slog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

type createOrderRequest struct {
	TotalAmount decimal.Decimal           `json:"total_amount"`
	Items       []domain.OrderItemRequest `json:"items"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.repo.PlaceOrder(r.Context(), domain.PlaceOrderRequest{
		UserID:      id.UserID,
		TotalAmount: req.TotalAmount,
		Items:       req.Items,
	})
	if err != nil {
		h.metrics.OrderRejected(r.Context(), rejectReason(err))
		h.fail(w, err, "failed to place order", "user_id", id.UserID)
		return
	}

	h.metrics.OrderPlaced(r.Context())

	if h.publisher != nil {
		if err := h.publisher.Publish(r.Context(), order.ID, domain.NewOrderPlacedEvent(order)); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "user_id", order.UserID, "items", len(order.Items), "quantity", order.TotalQuantity())
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "skip must be an integer")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	orders, err := h.repo.ListByUser(r.Context(), id.UserID, skip, limit)
	if err != nil {
		h.fail(w, err, "failed to list orders", "user_id", id.UserID)
		return
	}

	h.logger.Info("orders listed", "user_id", id.UserID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

// HandleGet returns one of the caller's orders. Orders owned by someone else
// are reported as not found.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	orderID := r.PathValue("id")

	order, err := h.repo.GetByID(r.Context(), orderID)
	if err == nil && order.UserID != id.UserID {
		err = domain.ErrOrderNotFound
	}
	if err != nil {
		h.fail(w, err, "failed to get order", "order_id", orderID)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// HandleUpdateStatus reads the new status from the JSON body, falling back to
// the status query parameter.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req updateStatusRequest
	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = domain.OrderStatus(status)
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.fail(w, err, "failed to update order status", "order_id", orderID)
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

func rejectReason(err error) string {
	switch {
	case domain.KindOf(err) == domain.KindNotFound:
		return "product_not_found"
	case domain.KindOf(err) == domain.KindInvalidState:
		return "insufficient_stock"
	default:
		return domain.KindOf(err).String()
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
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
