// Package auth reads the caller identity asserted by the upstream identity
// layer. Tokens are verified before requests reach this service, so the
// headers below are trusted as-is.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

const (
	HeaderUserID      = "X-User-ID"
	HeaderPermissions = "X-User-Permissions"
)

const (
	PermCreateProduct     = "create_product"
	PermUpdateProduct     = "update_product"
	PermDeleteProduct     = "delete_product"
	PermCreateCategory    = "create_category"
	PermUpdateOrderStatus = "update_order_status"
)

type Identity struct {
	UserID      string
	Permissions []string
}

func (i Identity) Has(permission string) bool {
	return slices.Contains(i.Permissions, permission)
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// FromRequest parses the identity headers. ok is false when no user id is present.
func FromRequest(r *http.Request) (Identity, bool) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return Identity{}, false
	}

	var perms []string
	for _, p := range strings.Split(r.Header.Get(HeaderPermissions), ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}

	return Identity{UserID: userID, Permissions: perms}, true
}

// SetHeaders writes id onto an outgoing request.
func SetHeaders(h http.Header, id Identity) {
	h.Set(HeaderUserID, id.UserID)
	if len(id.Permissions) > 0 {
		h.Set(HeaderPermissions, strings.Join(id.Permissions, ","))
	}
}

type Middleware struct {
	logger *slog.Logger
}

func NewMiddleware(logger *slog.Logger) *Middleware {
	return &Middleware{logger: logger}
}

// Authenticated rejects requests without an identity with 401.
func (m *Middleware) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromRequest(r)
		if !ok {
			m.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

// Require additionally rejects identities lacking permission with 403.
func (m *Middleware) Require(permission string, next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticated(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		if !id.Has(permission) {
			m.logger.Info("permission denied", "user_id", id.UserID, "permission", permission)
			m.writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		next(w, r)
	})
}

func (m *Middleware) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		m.logger.Error("failed to encode error response", "error", err)
	}
}
