package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hirase-art/inventory-risk/internal/api"
	"github.com/hirase-art/inventory-risk/internal/cache"
	"github.com/hirase-art/inventory-risk/internal/config"
	"github.com/hirase-art/inventory-risk/internal/repository"
	"github.com/hirase-art/inventory-risk/internal/repository/postgres"
	"github.com/hirase-art/inventory-risk/internal/service"
	"github.com/hirase-art/inventory-risk/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(context.Background(), db.DB.DB); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	snapshotCache, err := cache.NewSnapshotCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, serving without cache")
		snapshotCache = cache.NewNoopSnapshotCache()
	}

	defaults, err := service.DefaultsFromConfig(cfg.Analysis)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid analysis configuration")
	}

	riskService := service.NewRiskService(service.Repositories{
		Master:    repository.NewMasterRepository(db),
		Shipments: repository.NewShipmentRepository(db),
		Stock:     repository.NewStockRepository(db),
		Inbound:   repository.NewInboundRepository(db),
	}, snapshotCache, defaults)

	router := api.NewRouter(&api.Services{RiskService: riskService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Int("window", defaults.WindowSize).
			Str("period_kind", defaults.PeriodKind.String()).
			Bool("cache", cfg.Cache.Enabled).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
