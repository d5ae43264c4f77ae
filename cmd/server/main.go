package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tmcalister/crucible/internal"
	"github.com/tmcalister/crucible/internal/events"
	"github.com/tmcalister/crucible/internal/handler"
	"github.com/tmcalister/crucible/internal/middleware"
	"github.com/tmcalister/crucible/internal/postgres"
	"github.com/tmcalister/crucible/internal/service"
	"github.com/tmcalister/crucible/internal/tax"
	"github.com/tmcalister/crucible/internal/telemetry"
	"github.com/tmcalister/crucible/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	store := postgres.NewStore(pool)
	ruleStore := postgres.NewPricingRuleStore(store)
	invoiceStore := postgres.NewInvoiceStore(store)
	orderStore := postgres.NewOrderStore(store)
	customerStore := postgres.NewCustomerStore(store)
	productStore := postgres.NewProductStore(store)

	// Initialize metrics
	businessMetrics := telemetry.NewBusinessMetrics(cfg.MetricsNamespace)
	httpMetrics := middleware.NewMetrics(cfg.MetricsNamespace)

	// Initialize event publisher
	var publisher events.Publisher = events.Noop{}
	if cfg.NatsUrl != "" {
		logger.Info("Connecting to NATS...", "url", cfg.NatsUrl)
		natsPublisher, err := events.NewNATSPublisher(cfg.NatsUrl, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS connection established")
	}

	// Initialize tax calculator
	taxCalculator := tax.NewFlatRateCalculator(cfg.TaxRate)

	// Initialize services
	pricingService := service.NewPricingService(
		ruleStore, productStore, customerStore, cfg.RuleCacheTTL, businessMetrics, logger)
	invoiceService := service.NewInvoiceService(
		invoiceStore, orderStore, customerStore, taxCalculator,
		cfg.SellerJurisdiction, publisher, businessMetrics, logger)

	// Start overdue sweep worker
	overdueWorker := worker.NewWorker(invoiceService, worker.Config{
		PollInterval: cfg.OverduePollInterval,
	}, logger)
	go func() {
		if err := overdueWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("overdue worker stopped", "error", err)
		}
	}()

	// Build HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.RequestLogger(logger))

	e.GET("/metrics", httpMetrics.Handler())

	h := handler.New(pricingService, invoiceService, func(c echo.Context) error {
		return pool.Ping(c.Request().Context())
	}, logger)
	h.RegisterRoutes(e)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	go func() {
		logger.Info("Starting server", "address", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
