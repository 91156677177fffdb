package main

import (
	"context"
	"delivery-sequencing-service/internal/adapters/cache"
	"delivery-sequencing-service/internal/adapters/repositories"
	"delivery-sequencing-service/internal/adapters/travel"
	"delivery-sequencing-service/internal/api"
	"delivery-sequencing-service/internal/config"
	"delivery-sequencing-service/internal/platform/db"
	"delivery-sequencing-service/internal/platform/logging"
	"delivery-sequencing-service/internal/ports"
	"delivery-sequencing-service/internal/services"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
)

// main is the application composition root.
// It wires concrete adapters (SQL, ORS, Redis) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logging.Setup(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, conn, cfg.SeedPath); err != nil {
		return err
	}

	estimator, closeEstimator, err := newEstimator(ctx, cfg, conn)
	if err != nil {
		return err
	}
	defer closeEstimator()

	store := repositories.NewSQLAssignmentStore(conn, cfg.TxTimeout)
	reservations := repositories.NewSQLReservationRepository(conn)

	router := api.NewRouter(api.Services{
		Registry:    services.NewGroupRegistry(store, cfg.MaxGroupsPerRequest),
		Sequencing:  services.NewSequencingService(store, reservations),
		Feasibility: services.NewFeasibilityReporter(store, reservations, estimator, cfg.EstimateConcurrency, cfg.EstimateTimeout),
		RouteLinks:  services.NewRouteLinkBuilder(store, reservations, cfg.DepotAddress),
	})

	// Timeouts leave room for cold-cache feasibility reports (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initAndSeed(ctx context.Context, conn *sqlx.DB, seedPath string) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	n, err := repositories.SeedFromJSON(ctx, conn, seedPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no seed file, skipping", "path", seedPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	slog.Info("reservations seeded", "count", n, "path", seedPath)
	return nil
}

// newEstimator builds ORS behind a circuit breaker, caching through Redis
// when REDIS_URL is set and the SQL cache tables otherwise. Without an ORS
// key feasibility pairs are reported as unknown.
func newEstimator(ctx context.Context, cfg *config.Config, conn *sqlx.DB) (ports.TravelEstimator, func(), error) {
	noop := func() {}
	if cfg.ORSAPIKey == "" {
		slog.Warn("ORS_API_KEY not set, feasibility reports will be unknown")
		return nil, noop, nil
	}

	var travelCache ports.TravelCache = cache.NewSQLTravelCache(conn)
	var geocodeCache ports.GeocodeCache = cache.NewSQLGeocodeCache(conn)
	closeFn := noop

	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		closeFn = func() { _ = rdb.Close() }

		fast := cache.NewRedisCache(rdb, 0)
		travelCache = &cache.TieredTravelCache{Fast: fast, Slow: travelCache}
		geocodeCache = &cache.TieredGeocodeCache{Fast: fast, Slow: geocodeCache}
	}

	opts := []travel.ORSOption{travel.WithProfile(cfg.ORSProfile)}
	if cfg.ORSCountry != "" {
		opts = append(opts, travel.WithCountry(cfg.ORSCountry))
	}

	ors, err := travel.NewORSEstimator(cfg.ORSAPIKey, travelCache, geocodeCache, opts...)
	if err != nil {
		closeFn()
		return nil, noop, err
	}

	return travel.NewBreakerEstimator(ors, cfg.BreakerFailures, cfg.BreakerOpenTimeout), closeFn, nil
}
