package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"floorplan-server/internal/floorplan"
	floorplanHandlers "floorplan-server/internal/floorplan/handlers"
	"floorplan-server/internal/middleware"
	"floorplan-server/internal/server"
	"floorplan-server/internal/shared/config"
	"floorplan-server/internal/shared/database"
	"floorplan-server/internal/shared/logger"
	"floorplan-server/internal/shared/redis"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init()
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("Starting floorplan server",
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"auth_enabled", cfg.Auth.Enabled,
	)

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if db != nil {
		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	cacheClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if err := cacheClient.Close(); err != nil {
			log.Error("Failed to close redis", "error", err)
		}
	}()

	var repo floorplan.Repository
	if db != nil {
		repo = floorplan.NewPostgresRepository(db, slog.Default())
	}

	var cache floorplan.CongestionCache
	if cacheClient != nil {
		cache = floorplan.NewRedisCongestionCache(cacheClient.Client, cfg.Redis.CacheTTL)
	}

	store := floorplan.NewStore()
	service := floorplan.NewService(store, repo, cache, floorplan.Options{
		SnapThreshold:     cfg.Floorplan.SnapThreshold,
		UpstairsProxyName: cfg.Floorplan.UpstairsProxyName,
		CongestionWorkers: cfg.Floorplan.CongestionWorkers,
	}, slog.Default())

	if err := service.LoadPersisted(ctx); err != nil {
		return err
	}

	routes := server.NewRoutes(db, cacheClient, store, service,
		middleware.NewAuthMiddleware(cfg.Auth),
		floorplanHandlers.Options{
			ImageDir:       cfg.Floorplan.ImageDir,
			MaxUploadBytes: cfg.Floorplan.MaxUploadBytes,
		},
		slog.Default(),
	)
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	cors := middleware.NewCORS(cfg.Frontend)
	handler := middleware.RequestID(cors.Middleware(rateLimiter.Middleware(mux)))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
