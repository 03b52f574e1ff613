package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"roadtrip-planner/internal/adapters/cache"
	"roadtrip-planner/internal/adapters/repositories"
	"roadtrip-planner/internal/adapters/routing"
	"roadtrip-planner/internal/api"
	"roadtrip-planner/internal/config"
	"roadtrip-planner/internal/platform/db"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"roadtrip-planner/internal/services"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or memory, OSRM/ORS, route caches)
// behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := obs.NewLogger(os.Stdout, obs.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Info("no .env file found (using environment variables)")
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		obs.LogError(logger, "server exited", err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so deferred closes run on all exit paths.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, sqlDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}

	routeCache, closeCache, err := openRouteCache(ctx, cfg, sqlDB)
	if err != nil {
		return fmt.Errorf("open route cache: %w", err)
	}
	defer closeCache()

	gateway, err := newGateway(cfg, routeCache)
	if err != nil {
		return fmt.Errorf("create routing gateway: %w", err)
	}

	lockPolicy, err := services.ParseLockPolicy(cfg.ScheduleLockPolicy)
	if err != nil {
		return err
	}

	schedule := services.NewScheduleEngine(store, lockPolicy)
	conflicts := services.NewConflictResolver(store)
	legs := services.NewLegManager(store, gateway)
	editor := services.NewTripEditor(store, schedule, conflicts, legs)

	router := api.NewRouter(api.Services{
		Schedule:  schedule,
		Conflicts: conflicts,
		Legs:      legs,
		Editor:    editor,
	}, logger)

	// Timeouts leave room for a cold-cache routing call inside an edit.
	logger.Info("server listening",
		slog.String("addr", ":"+cfg.Port),
		slog.String("store", cfg.Store),
		slog.String("routing", cfg.RoutingProvider),
		slog.String("route_cache", cfg.RouteCache),
		slog.String("lock_policy", string(lockPolicy)))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// openStore returns the trip store and, for Postgres, the open database.
func openStore(cfg *config.Config) (ports.TripStore, *sqlx.DB, error) {
	if cfg.Store == "memory" {
		store := repositories.NewMemoryTripStore()
		seed, err := repositories.LoadSeed(cfg.SeedPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		if err := store.Seed(seed); err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return store, nil, nil
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return repositories.NewPostgresTripStore(sqlDB), sqlDB, nil
}

func openRouteCache(ctx context.Context, cfg *config.Config, sqlDB *sqlx.DB) (ports.RouteCache, func(), error) {
	noop := func() {}

	switch cfg.RouteCache {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return cache.NewRedisRouteCache(client, cfg.RouteCacheTTL), func() { _ = client.Close() }, nil
	case "sql":
		return cache.NewSQLRouteCache(sqlDB.DB, cfg.RouteCacheTTL), noop, nil
	}
	return nil, noop, nil
}

func newGateway(cfg *config.Config, routeCache ports.RouteCache) (ports.RoutingGateway, error) {
	switch cfg.RoutingProvider {
	case "ors":
		return routing.NewORSGateway(cfg.ORSAPIKey, cfg.ORSBaseURL, cfg.ORSProfile, cfg.HTTPTimeout, routeCache)
	case "mock":
		return routing.NewMockRoutingGateway(), nil
	}
	return routing.NewOSRMGateway(cfg.OSRMBaseURL, cfg.OSRMProfile, cfg.HTTPTimeout, routeCache)
}
