package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/scandine/scandine/internal/gateway"
	"github.com/scandine/scandine/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "scandine-gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ordersServiceURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersServiceURL == "" {
		logger.Error("ORDERS_SERVICE_URL is required")
		os.Exit(1)
	}

	menuServiceURL := os.Getenv("MENU_SERVICE_URL")
	if menuServiceURL == "" {
		logger.Error("MENU_SERVICE_URL is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	ordersProxy := gateway.NewServiceProxy(ordersServiceURL, httpClient)
	menuProxy := gateway.NewServiceProxy(menuServiceURL, httpClient)
	handler := gateway.NewHandler(ordersProxy, menuProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders/active", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders/completed", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders/monthly", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("DELETE /api/orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("PATCH /api/orders/{id}/mark-paid", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("PATCH /api/orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/restaurant/revenue", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("POST /api/restaurant/reset-revenue", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("/api/menu/", telemetry.WithHTTPRoute(handler.HandleMenu))

	allowedOrigins := []string{"*"}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-New-Token", "Content-Disposition"},
		AllowCredentials: false,
	})

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(corsMiddleware.Handler(mux), "scandine-gateway",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting gateway", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
