package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cleancity/cleancity-be/internal/api"
	"github.com/cleancity/cleancity-be/internal/auth"
	"github.com/cleancity/cleancity-be/internal/config"
	"github.com/cleancity/cleancity-be/internal/database"
	"github.com/cleancity/cleancity-be/internal/logger"
	"github.com/cleancity/cleancity-be/internal/metrics"
	"github.com/cleancity/cleancity-be/internal/monitoring"
	"github.com/cleancity/cleancity-be/internal/services"
	"github.com/cleancity/cleancity-be/internal/storage"
	"github.com/cleancity/cleancity-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the blob store backend
	var blobStore storage.Store
	switch cfg.BlobBackend {
	case "s3":
		blobStore, err = storage.NewS3Store(context.Background(), db, cfg, cfg.MaxUploadBytes)
	default:
		blobStore, err = storage.NewFSStore(db, cfg.UploadDir, cfg.MaxUploadBytes)
	}
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.BlobBackend).Msg("Failed to initialize blob store")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	reportService := services.NewReportService(db, eventService, hub)
	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	m := metrics.New()

	// Optionally run the scheduled stats snapshot job
	var snapshotter *monitoring.Snapshotter
	if cfg.SnapshotCron != "" {
		snapshotter, err = monitoring.NewSnapshotter(reportService, hub, cfg.SnapshotCron)
		if err != nil {
			log.Fatal().Err(err).Str("cron", cfg.SnapshotCron).Msg("Invalid stats snapshot schedule")
		}
		go snapshotter.Run()
	}

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		UserService:   userService,
		ReportService: reportService,
		EventService:  eventService,
		BlobStore:     blobStore,
		TokenService:  tokenService,
		Hub:           hub,
		Metrics:       m,
		CORSOrigins:   cfg.CORSOrigins,
		UploadTimeout: cfg.UploadTimeout,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if snapshotter != nil {
		snapshotter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
