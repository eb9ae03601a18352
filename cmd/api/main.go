package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/hometechhq/installr-backend/api/routes"
	"github.com/hometechhq/installr-backend/internal/claims"
	"github.com/hometechhq/installr-backend/internal/orders"
	"github.com/hometechhq/installr-backend/internal/payments"
	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/config"
	"github.com/hometechhq/installr-backend/pkg/db"
	"github.com/hometechhq/installr-backend/pkg/logger"
	"github.com/hometechhq/installr-backend/pkg/migrate"
	"github.com/hometechhq/installr-backend/pkg/redis"
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

	fallbackDB, err := db.OpenFallback(cfg.Fallback)
	if err != nil {
		logg.Error(context.Background(), "failed to open fallback ledger", err)
		os.Exit(1)
	}

	ledger, err := store.NewLedger(fallbackDB)
	if err != nil {
		logg.Error(context.Background(), "failed to create fallback ledger", err)
		os.Exit(1)
	}

	orderStore, err := store.NewResilient(store.ResilientParams{
		Remote:    dbClient.DB(),
		Ledger:    ledger,
		Logger:    logg,
		OpTimeout: cfg.DB.OpTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order store", err)
		os.Exit(1)
	}

	txnService, err := transactions.NewService(transactions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	gateway, err := payments.NewSquareGateway(cfg.Payments, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Store:      orderStore,
		Txns:       txnService,
		Gateway:    gateway,
		TaxRateBps: cfg.Payments.TaxRateBps,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	claimService, err := claims.NewService(claims.ServiceParams{
		Store: orderStore,
		Txns:  txnService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create claim service", err)
		os.Exit(1)
	}

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
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Orders:       orderService,
			Claims:       claimService,
			Store:        orderStore,
			Transactions: txnService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
