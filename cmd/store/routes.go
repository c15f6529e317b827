package main

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/inventory"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type dependencies struct {
	db        *sql.DB
	publisher orders.Publisher
	metrics   *telemetry.StoreMetrics
	logger    *slog.Logger
}

func newMux(deps dependencies) *http.ServeMux {
	products := inventory.NewProductRepository(deps.db)
	carts := cart.NewRepository(deps.db)

	productHandler := inventory.NewHandler(products, deps.logger)
	cartHandler := cart.NewHandler(carts, cart.NewService(carts, inventory.NewGuard(products), deps.metrics), deps.logger)
	orderHandler := orders.NewHandler(orders.NewOrderRepository(deps.db), deps.publisher, deps.metrics, deps.logger)

	authn := auth.NewMiddleware(deps.logger)
	route := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(authn.Authenticated(h))
	}
	guarded := func(permission string, h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(authn.Require(permission, h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /products", route(productHandler.HandleList))
	mux.HandleFunc("POST /products", guarded(auth.PermCreateProduct, productHandler.HandleCreate))
	mux.HandleFunc("GET /products/{id}", route(productHandler.HandleGet))
	mux.HandleFunc("PUT /products/{id}", guarded(auth.PermUpdateProduct, productHandler.HandleUpdate))
	mux.HandleFunc("DELETE /products/{id}", guarded(auth.PermDeleteProduct, productHandler.HandleDelete))
	mux.HandleFunc("GET /products/{id}/availability", route(productHandler.HandleAvailability))
	mux.HandleFunc("GET /categories", route(productHandler.HandleListCategories))
	mux.HandleFunc("POST /categories", guarded(auth.PermCreateCategory, productHandler.HandleCreateCategory))

	mux.HandleFunc("GET /cart", route(cartHandler.HandleGet))
	mux.HandleFunc("DELETE /cart", route(cartHandler.HandleClear))
	mux.HandleFunc("POST /cart/items", route(cartHandler.HandleAddItem))
	mux.HandleFunc("DELETE /cart/items/{id}", route(cartHandler.HandleRemoveItem))

	mux.HandleFunc("GET /orders", route(orderHandler.HandleList))
	mux.HandleFunc("POST /orders", route(orderHandler.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", route(orderHandler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", guarded(auth.PermUpdateOrderStatus, orderHandler.HandleUpdateStatus))
	mux.HandleFunc("PUT /orders/{id}/status", guarded(auth.PermUpdateOrderStatus, orderHandler.HandleUpdateStatus))

	return mux
}
