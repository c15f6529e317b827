package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
)

type ProductStore interface {
	ProductGetter
	ListProducts(ctx context.Context, skip, limit int) ([]domain.Product, error)
	CreateProduct(ctx context.Context, c domain.ProductCreate) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, c domain.CategoryCreate) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type Handler struct {
	repo   ProductStore
	guard  *Guard
	logger *slog.Logger
}

func NewHandler(repo ProductStore, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		guard:  NewGuard(repo),
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	products, err := h.repo.ListProducts(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, err, "failed to list products")
		return
	}

	h.logger.Info("products listed", "count", len(products))
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, err, "failed to get product", "product_id", id)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.repo.CreateProduct(r.Context(), req)
	if err != nil {
		h.fail(w, err, "failed to create product")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "stock", product.Stock)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req domain.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.repo.UpdateProduct(r.Context(), id, req)
	if err != nil {
		h.fail(w, err, "failed to update product", "product_id", id)
		return
	}

	h.logger.Info("product updated", "product_id", product.ID)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, err, "failed to delete product", "product_id", id)
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type availabilityResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// HandleAvailability reports whether quantity (default 1) could be added to a
// cart right now. Unknown products are a 404; inactive or short stock is a 200
// with available=false.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q <= 0 {
			h.writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
			return
		}
		quantity = q
	}

	resp := availabilityResponse{ProductID: id, Quantity: quantity, Available: true}

	if _, err := h.guard.CheckAvailability(r.Context(), id, quantity); err != nil {
		if domain.KindOf(err) != domain.KindInvalidState {
			h.fail(w, err, "failed to check availability", "product_id", id)
			return
		}
		resp.Available = false
		resp.Reason = err.Error()
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		h.fail(w, err, "failed to list categories")
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.CategoryCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.repo.CreateCategory(r.Context(), req)
	if err != nil {
		h.fail(w, err, "failed to create category")
		return
	}

	h.logger.Info("category created", "category_id", category.ID, "name", category.Name)
	h.writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "skip must be an integer")
		return 0, 0, false
	}
	limit, err := queryInt(r, "limit", DefaultListLimit)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "limit must be an integer")
		return 0, 0, false
	}
	skip, limit = NormalizePage(skip, limit)
	return skip, limit, true
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
	} else if !errors.Is(err, domain.ErrProductNotFound) {
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
