package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmreyes/backoffice-backend/api/routes"
	"github.com/dmreyes/backoffice-backend/internal/allocations"
	"github.com/dmreyes/backoffice-backend/internal/dashboard"
	"github.com/dmreyes/backoffice-backend/internal/inventory"
	"github.com/dmreyes/backoffice-backend/internal/movements"
	"github.com/dmreyes/backoffice-backend/internal/orders"
	"github.com/dmreyes/backoffice-backend/internal/receiving"
	"github.com/dmreyes/backoffice-backend/pkg/config"
	"github.com/dmreyes/backoffice-backend/pkg/db"
	"github.com/dmreyes/backoffice-backend/pkg/instance"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
	"github.com/dmreyes/backoffice-backend/pkg/metrics"
	"github.com/dmreyes/backoffice-backend/pkg/migrate"
	"github.com/dmreyes/backoffice-backend/pkg/outbox"
	"github.com/dmreyes/backoffice-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(promRegistry)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ledger := inventory.NewLedger()

	movementsSvc, err := movements.NewService(movements.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create movements service", err)
		os.Exit(1)
	}

	allocationsSvc, err := allocations.NewService(
		allocations.NewRepository(dbClient.DB()),
		dbClient,
		ledger,
		movementsSvc,
		outboxSvc,
		logg,
		fulfillmentMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create allocations service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		allocationsSvc,
		outboxSvc,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	receivingSvc, err := receiving.NewService(
		receiving.NewRepository(dbClient.DB()),
		dbClient,
		ledger,
		movementsSvc,
		outboxSvc,
		fulfillmentMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create receiving service", err)
		os.Exit(1)
	}

	dashboardSvc, err := dashboard.NewService(
		dashboard.NewRepository(dbClient.DB()),
		redisClient,
		logg,
		cfg.Dashboard,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			ordersSvc,
			allocationsSvc,
			receivingSvc,
			dashboardSvc,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
