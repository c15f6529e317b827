package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestMiddleware() *Middleware {
	return NewMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFromRequest(t *testing.T) {
	t.Run("parses user and permissions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, " user-1 ")
		req.Header.Set(HeaderPermissions, "create_product, update_order_status,,")

		id, ok := FromRequest(req)
		if !ok {
			t.Fatal("expected identity")
		}
		if id.UserID != "user-1" {
			t.Errorf("expected user-1, got %q", id.UserID)
		}
		if len(id.Permissions) != 2 {
			t.Fatalf("expected 2 permissions, got %v", id.Permissions)
		}
		if !id.Has(PermUpdateOrderStatus) {
			t.Error("expected update_order_status permission")
		}
		if id.Has(PermDeleteProduct) {
			t.Error("unexpected delete_product permission")
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderPermissions, "create_product")
		if _, ok := FromRequest(req); ok {
			t.Error("expected no identity")
		}
	})
}

func TestMiddleware_Authenticated(t *testing.T) {
	m := newTestMiddleware()

	var seen Identity
	handler := m.Authenticated(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects anonymous request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("passes identity to handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(HeaderUserID, "user-7")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
		if seen.UserID != "user-7" {
			t.Errorf("expected user-7 in context, got %q", seen.UserID)
		}
	})
}

func TestMiddleware_Require(t *testing.T) {
	m := newTestMiddleware()
	handler := m.Require(PermUpdateOrderStatus, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		userID      string
		permissions string
		want        int
	}{
		{"anonymous", "", "", http.StatusUnauthorized},
		{"missing permission", "user-1", "create_product", http.StatusForbidden},
		{"granted", "admin", "update_order_status", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/orders/1/status", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			req.Header.Set(HeaderPermissions, tt.permissions)
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestSetHeaders(t *testing.T) {
	h := http.Header{}
	SetHeaders(h, Identity{UserID: "u1", Permissions: []string{"a", "b"}})
	if h.Get(HeaderUserID) != "u1" || h.Get(HeaderPermissions) != "a,b" {
		t.Errorf("unexpected headers: %v", h)
	}
}
