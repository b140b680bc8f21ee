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

	"github.com/mercatolabs/storefront-backend/api/routes"
	"github.com/mercatolabs/storefront-backend/internal/cart"
	"github.com/mercatolabs/storefront-backend/internal/catalog"
	"github.com/mercatolabs/storefront-backend/internal/discounts"
	"github.com/mercatolabs/storefront-backend/internal/pricing"
	"github.com/mercatolabs/storefront-backend/pkg/config"
	"github.com/mercatolabs/storefront-backend/pkg/db"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/metrics"
	"github.com/mercatolabs/storefront-backend/pkg/migrate"
	"github.com/mercatolabs/storefront-backend/pkg/redis"
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

	currency, err := enums.ParseCurrency(cfg.Pricing.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid pricing currency", err)
		os.Exit(1)
	}

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

	registry := prometheus.NewRegistry()
	pricingMetrics := metrics.NewPricingMetrics(registry)

	discountsService := discounts.NewService(
		discounts.NewRepository(dbClient.DB()),
		redisClient,
		logg,
		pricingMetrics,
		cfg.Pricing.SnapshotCacheTTL,
	)
	engine := pricing.NewEngine(logg, currency)
	cartService := cart.NewService(
		catalog.NewRepository(dbClient.DB()),
		discountsService,
		engine,
		pricingMetrics,
		logg,
		currency,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:           cfg,
			Logger:           logg,
			DB:               dbClient,
			Redis:            redisClient,
			CartService:      cartService,
			DiscountsService: discountsService,
			MetricsGatherer:  registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
