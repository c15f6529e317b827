package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeStore struct {
	stubProducts
	listSkip, listLimit int
	created             *domain.ProductCreate
	updated             *domain.ProductUpdate
	deleteErr           error
	categoryErr         error
}

func (f *fakeStore) ListProducts(_ context.Context, skip, limit int) ([]domain.Product, error) {
	f.listSkip, f.listLimit = skip, limit
	products := []domain.Product{}
	for _, p := range f.stubProducts {
		products = append(products, p)
	}
	return products, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, c domain.ProductCreate) (*domain.Product, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	f.created = &c
	p := c.Product()
	p.ID = "new-product"
	return &p, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	p, err := f.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	f.updated = &u
	updated, err := u.Apply(*p)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (f *fakeStore) DeleteProduct(context.Context, string) error {
	return f.deleteErr
}

func (f *fakeStore) CreateCategory(_ context.Context, c domain.CategoryCreate) (*domain.Category, error) {
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	return &domain.Category{ID: "c1", Name: c.Name}, nil
}

func (f *fakeStore) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "c1", Name: "Garden"}}, nil
}

func newTestHandler(store *fakeStore) *Handler {
	return NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newFakeStore() *fakeStore {
	return &fakeStore{stubProducts: stubProducts{
		"p1": {ID: "p1", Name: "Hose", Price: decimal.RequireFromString("12.50"), Stock: 5, IsActive: true},
		"p2": {ID: "p2", Name: "Rake", Price: decimal.RequireFromString("20.00"), Stock: 5, IsActive: false},
	}}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestHandler_HandleGet(t *testing.T) {
	handler := newTestHandler(newFakeStore())

	t.Run("returns product", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products/p1", nil)
		req.SetPathValue("id", "p1")
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var p domain.Product
		if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.Name != "Hose" || !p.Price.Equal(decimal.RequireFromString("12.5")) {
			t.Errorf("unexpected product: %+v", p)
		}
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleList(t *testing.T) {
	store := newFakeStore()
	handler := newTestHandler(store)

	t.Run("clamps limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products?skip=2&limit=500", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if store.listSkip != 2 || store.listLimit != MaxListLimit {
			t.Errorf("expected skip=2 limit=%d, got skip=%d limit=%d", MaxListLimit, store.listSkip, store.listLimit)
		}
	})

	t.Run("rejects non-numeric skip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products?skip=abc", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates active product by default", func(t *testing.T) {
		store := newFakeStore()
		handler := newTestHandler(store)

		req := httptest.NewRequest(http.MethodPost, "/products",
			strings.NewReader(`{"name":"Shovel","price":"15.00","stock":3}`))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var p domain.Product
		if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !p.IsActive {
			t.Error("expected product to be active")
		}
	})

	t.Run("invalid price is 400", func(t *testing.T) {
		handler := newTestHandler(newFakeStore())

		req := httptest.NewRequest(http.MethodPost, "/products",
			strings.NewReader(`{"name":"Shovel","price":"0","stock":3}`))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		handler := newTestHandler(newFakeStore())

		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{`))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdate(t *testing.T) {
	store := newFakeStore()
	handler := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPut, "/products/p1", strings.NewReader(`{"stock":0}`))
	req.SetPathValue("id", "p1")
	rec := httptest.NewRecorder()

	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if store.updated == nil || store.updated.Stock == nil || *store.updated.Stock != 0 {
		t.Fatalf("expected stock update to be passed through, got %+v", store.updated)
	}
	if store.updated.Name != nil {
		t.Error("expected name to be left unset")
	}
}

func TestHandler_HandleDelete(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"missing", domain.NewProductError(domain.ErrProductNotFound, "p9", ""), http.StatusNotFound},
		{"referenced by orders", fmt.Errorf("%w: product p1 is referenced", domain.ErrConflict), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.deleteErr = tt.err
			handler := newTestHandler(store)

			req := httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
			req.SetPathValue("id", "p1")
			rec := httptest.NewRecorder()

			handler.HandleDelete(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHandler_HandleAvailability(t *testing.T) {
	handler := newTestHandler(newFakeStore())

	tests := []struct {
		name          string
		id            string
		query         string
		wantStatus    int
		wantAvailable bool
		wantReason    string
	}{
		{"available", "p1", "?quantity=5", http.StatusOK, true, ""},
		{"default quantity", "p1", "", http.StatusOK, true, ""},
		{"short stock", "p1", "?quantity=6", http.StatusOK, false, "not enough stock for product Hose"},
		{"inactive", "p2", "?quantity=1", http.StatusOK, false, "product is not active: Rake"},
		{"unknown", "p9", "", http.StatusNotFound, false, ""},
		{"bad quantity", "p1", "?quantity=-2", http.StatusBadRequest, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/products/"+tt.id+"/availability"+tt.query, nil)
			req.SetPathValue("id", tt.id)
			rec := httptest.NewRecorder()

			handler.HandleAvailability(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp availabilityResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Available != tt.wantAvailable {
				t.Errorf("expected available=%v, got %v", tt.wantAvailable, resp.Available)
			}
			if resp.Reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, resp.Reason)
			}
		})
	}
}

func TestHandler_HandleCreateCategory(t *testing.T) {
	t.Run("duplicate name is 409", func(t *testing.T) {
		store := newFakeStore()
		store.categoryErr = fmt.Errorf("%w: category %q already exists", domain.ErrConflict, "Garden")
		handler := newTestHandler(store)

		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Garden"}`))
		rec := httptest.NewRecorder()

		handler.HandleCreateCategory(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
		if msg := decodeError(t, rec); !strings.Contains(msg, "already exists") {
			t.Errorf("unexpected error message: %q", msg)
		}
	})

	t.Run("creates category", func(t *testing.T) {
		handler := newTestHandler(newFakeStore())

		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Tools"}`))
		rec := httptest.NewRecorder()

		handler.HandleCreateCategory(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})
}
