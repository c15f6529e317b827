package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/gateway"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	config.LoadDotEnv()
	cfg, err := config.LoadGateway()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	storeProxy := gateway.NewServiceProxy(cfg.StoreServiceURL, telemetry.NewHTTPClient(10*time.Second))
	handler := gateway.NewHandler(storeProxy, logger)

	mux := http.NewServeMux()
	for _, pattern := range []string{
		"GET /products",
		"POST /products",
		"GET /products/{id}",
		"PUT /products/{id}",
		"DELETE /products/{id}",
		"GET /products/{id}/availability",
		"GET /categories",
		"POST /categories",
		"GET /cart",
		"DELETE /cart",
		"POST /cart/items",
		"DELETE /cart/items/{id}",
		"GET /orders",
		"POST /orders",
		"GET /orders/{id}",
		"PATCH /orders/{id}/status",
		"PUT /orders/{id}/status",
	} {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(handler.HandleStore))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.NewServerHandler(mux, "gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", cfg.Port, "store", cfg.StoreServiceURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
