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

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/scandine/scandine/internal/auth"
	"github.com/scandine/scandine/internal/ledger"
	"github.com/scandine/scandine/internal/messaging"
	"github.com/scandine/scandine/internal/orders"
	"github.com/scandine/scandine/internal/report"
	"github.com/scandine/scandine/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "scandine-server", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("scandine-server", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var createdProducer, paidProducer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		createdProducer = messaging.NewProducer(brokers, messaging.TopicOrderCreated)
		defer func() { _ = createdProducer.Close() }()
		paidProducer = messaging.NewProducer(brokers, messaging.TopicOrderPaid)
		defer func() { _ = paidProducer.Close() }()
	}

	orderRepo := orders.NewOrderRepository(db)
	ledgerRepo := ledger.NewRepository(db)

	orderHandler := orders.NewHandler(orderRepo, createdProducer, paidProducer, report.NewXLSXEncoder(), logger)
	ledgerHandler := ledger.NewHandler(ledgerRepo, logger)

	owner := auth.NewMiddleware([]byte(jwtSecret), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(orderHandler.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGet))
	mux.HandleFunc("GET /orders/active", telemetry.WithHTTPRoute(owner.Require(orderHandler.HandleListActive)))
	mux.HandleFunc("GET /orders/completed", telemetry.WithHTTPRoute(owner.Require(orderHandler.HandleListCompleted)))
	mux.HandleFunc("GET /orders/monthly", telemetry.WithHTTPRoute(owner.Require(orderHandler.HandleMonthlyReport)))
	mux.HandleFunc("DELETE /orders/{id}", telemetry.WithHTTPRoute(owner.Require(orderHandler.HandleDelete)))
	mux.HandleFunc("PATCH /orders/{id}/mark-paid", telemetry.WithHTTPRoute(owner.Require(orderHandler.HandleMarkPaid)))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(owner.Require(orderHandler.HandleUpdateStatus)))
	mux.HandleFunc("GET /restaurant/revenue", telemetry.WithHTTPRoute(owner.Require(ledgerHandler.HandleGetRevenue)))
	mux.HandleFunc("POST /restaurant/reset-revenue", telemetry.WithHTTPRoute(owner.Require(ledgerHandler.HandleResetRevenue)))
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "scandine-server",
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
		logger.Info("starting ordering service", "port", port)
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
