package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/naledi-labs/storefront-backend/api/routes"
	"github.com/naledi-labs/storefront-backend/internal/checkout"
	"github.com/naledi-labs/storefront-backend/internal/credits"
	"github.com/naledi-labs/storefront-backend/internal/orders"
	"github.com/naledi-labs/storefront-backend/internal/products"
	"github.com/naledi-labs/storefront-backend/internal/shipping"
	"github.com/naledi-labs/storefront-backend/internal/suppliers"
	"github.com/naledi-labs/storefront-backend/pkg/config"
	"github.com/naledi-labs/storefront-backend/pkg/db"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
	"github.com/naledi-labs/storefront-backend/pkg/metrics"
	"github.com/naledi-labs/storefront-backend/pkg/migrate"
	"github.com/naledi-labs/storefront-backend/pkg/redis"
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

	vatRate, err := cfg.Checkout.VAT()
	if err != nil {
		logg.Error(context.Background(), "invalid VAT configuration", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	supplierService, err := suppliers.NewService(suppliers.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier service", err)
		os.Exit(1)
	}

	creditService, err := credits.NewService(credits.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create credit service", err)
		os.Exit(1)
	}

	aggregator, err := shipping.NewAggregator(supplierService, products.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping aggregator", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		checkout.NewRepository(dbClient.DB()),
		aggregator,
		creditService,
		dbClient,
		vatRate,
		logg,
		checkoutMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), creditService, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Registry:  registry,
			Checkout:  checkoutService,
			Credits:   creditService,
			Orders:    orderService,
			Suppliers: supplierService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
