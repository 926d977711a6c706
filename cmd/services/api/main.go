package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/demandcast/demandcast/internal/config"
	"github.com/demandcast/demandcast/internal/logging"
	"github.com/demandcast/demandcast/internal/queue"
	"github.com/demandcast/demandcast/internal/router"
	"github.com/demandcast/demandcast/internal/services"
	"github.com/demandcast/demandcast/internal/source"
	"github.com/demandcast/demandcast/internal/store"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("API service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Forecast collections persisted by previous runs
	fileStore, err := store.NewFileStore(cfg.Cache.Dir)
	if err != nil {
		logger.Fatal("Failed to initialize forecast store", "error", err)
	}

	// Upstream sales source used by POST /v1/forecasts/refresh
	provider := source.NewHTTPProvider(cfg.Source, logger)

	forecastService, err := services.NewForecastService(
		logger, provider, fileStore, cfg.Forecast, cfg.Detector)
	if err != nil {
		logger.Fatal("Failed to initialize forecast service", "error", err)
	}

	// Optional Redis read mirror
	if cfg.Cache.Redis.Enabled {
		logger.Info("Connecting to Redis mirror", "url", cfg.Cache.Redis.URL)
		mirror, err := store.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis mirror", "error", err)
		}
		defer func() { _ = mirror.Close() }()
		forecastService.WithMirror(mirror)
	}

	// Run events queue
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = publisher.Close() }()
	forecastService.WithPublisher(publisher)

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Initialize router
	app := router.New(logger, forecastService, *cfg, Version)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
