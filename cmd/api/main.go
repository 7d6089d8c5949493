package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tavernkeep/bazaar-backend/api/routes"
	"github.com/tavernkeep/bazaar-backend/internal/auth"
	"github.com/tavernkeep/bazaar-backend/internal/dms"
	"github.com/tavernkeep/bazaar-backend/internal/inventory"
	"github.com/tavernkeep/bazaar-backend/internal/library"
	"github.com/tavernkeep/bazaar-backend/internal/markets"
	"github.com/tavernkeep/bazaar-backend/internal/players"
	"github.com/tavernkeep/bazaar-backend/internal/session"
	"github.com/tavernkeep/bazaar-backend/internal/shops"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
	"github.com/tavernkeep/bazaar-backend/pkg/metrics"
	"github.com/tavernkeep/bazaar-backend/pkg/migrate"
	"github.com/tavernkeep/bazaar-backend/pkg/redis"
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
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	marketplaceMetrics := metrics.NewMarketplaceMetrics(promRegistry)

	stockTracker, err := session.NewTracker(redisClient, cfg.Market)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock tracker", err)
		os.Exit(1)
	}
	cartStore := players.NewRedisCartStore(redisClient, cfg.Market.SessionTTL())

	authService, err := auth.NewService(auth.ServiceParams{
		DMRepo:    dms.NewRepository(dbClient.DB()),
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	marketService, err := markets.NewService(markets.ServiceParams{
		DB:        dbClient,
		Tracker:   stockTracker,
		MarketCfg: cfg.Market,
		Limits:    cfg.Limits,
		Metrics:   marketplaceMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create market service", err)
		os.Exit(1)
	}

	marketRepo := markets.NewRepository(dbClient.DB())
	shopRepo := shops.NewRepository(dbClient.DB())
	libraryRepo := library.NewRepository(dbClient.DB())
	itemRepo := inventory.NewRepository(dbClient.DB())

	shopService, err := shops.NewService(shopRepo, marketRepo, cfg.Limits)
	if err != nil {
		logg.Error(context.Background(), "failed to create shop service", err)
		os.Exit(1)
	}
	libraryService, err := library.NewService(libraryRepo, cfg.Limits)
	if err != nil {
		logg.Error(context.Background(), "failed to create library service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(itemRepo, shopRepo, libraryRepo, stockTracker, cfg.Limits)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	playerService, err := players.NewService(players.ServiceParams{
		Markets:   marketService,
		Shops:     shopRepo,
		Items:     itemRepo,
		Stock:     stockTracker,
		Carts:     cartStore,
		MarketCfg: cfg.Market,
		Metrics:   marketplaceMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create player service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			authService,
			registerService,
			marketService,
			shopService,
			libraryService,
			inventoryService,
			playerService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
