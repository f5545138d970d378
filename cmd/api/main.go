package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hirase-art/inventory-risk/internal/cache"
	"github.com/hirase-art/inventory-risk/internal/config"
	"github.com/hirase-art/inventory-risk/internal/drive"
	"github.com/hirase-art/inventory-risk/internal/repository"
	"github.com/hirase-art/inventory-risk/internal/repository/postgres"
	"github.com/hirase-art/inventory-risk/internal/storage"
	"github.com/hirase-art/inventory-risk/pkg/logger"
)

// Drive ingest server: pulls spreadsheets from Google Drive into Postgres.
func main() {
	cfg := config.Load()
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	ctx := context.Background()

	driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	opts := drive.IngestOptions{ArchivePrefix: cfg.Drive.ArchivePrefix}

	if loc, err := time.LoadLocation(cfg.Analysis.Timezone); err == nil {
		opts.Location = loc
	} else {
		logger.Log.Warn().Err(err).Str("timezone", cfg.Analysis.Timezone).Msg("Unknown timezone, dates are read as UTC")
	}

	if cfg.Storage.Endpoint != "" {
		archive, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, ingested files are not archived")
		} else {
			opts.Archive = archive
		}
	}

	if cfg.Cache.Enabled {
		snapshotCache, err := cache.NewSnapshotCache(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Redis unavailable, cache is not invalidated after ingest")
		} else {
			opts.Cache = snapshotCache
		}
	}

	ingestService := drive.NewIngestService(driveService, repository.NewLoader(db), opts)

	r := mux.NewRouter()
	drive.NewHandler(driveService, ingestService, cfg.Drive.FolderID).RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         ":" + cfg.Drive.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Drive.Port).Msg("Drive ingest server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
