package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/demandcast/demandcast/internal/config"
	"github.com/demandcast/demandcast/internal/logging"
	"github.com/demandcast/demandcast/internal/queue"
	"github.com/demandcast/demandcast/internal/services"
	"github.com/demandcast/demandcast/internal/source"
	"github.com/demandcast/demandcast/internal/store"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

// forecaster runs one full generation pass and exits. It is meant to be
// scheduled (cron, Kubernetes CronJob) independently of the API service.
func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	seed := flag.Int64("seed", 0, "Override base RNG seed (0 keeps configured value)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Forecast.Seed = *seed
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Forecaster starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	fileStore, err := store.NewFileStore(cfg.Cache.Dir)
	if err != nil {
		logger.Fatal("Failed to initialize forecast store", "error", err)
	}

	provider := source.NewHTTPProvider(cfg.Source, logger)

	forecastService, err := services.NewForecastService(
		logger, provider, fileStore, cfg.Forecast, cfg.Detector)
	if err != nil {
		logger.Fatal("Failed to initialize forecast service", "error", err)
	}

	if cfg.Cache.Redis.Enabled {
		logger.Info("Connecting to Redis mirror", "url", cfg.Cache.Redis.URL)
		mirror, err := store.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis mirror", "error", err)
		}
		defer func() { _ = mirror.Close() }()
		forecastService.WithMirror(mirror)
	}

	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = publisher.Close() }()
	forecastService.WithPublisher(publisher)

	// Cancel the run on SIGINT/SIGTERM so a partial run never replaces
	// the previous collections.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	summary, err := forecastService.Run(ctx)
	if err != nil {
		logger.Error("Forecast generation run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Forecast generation run finished",
		"run_id", summary.RunID,
		"categories_total", summary.Categories.Total,
		"products_total", summary.Products.Total,
	)
}
