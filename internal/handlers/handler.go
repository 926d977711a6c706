package handlers

import (
	"github.com/demandcast/demandcast/internal/logging"
	"github.com/demandcast/demandcast/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger          *logging.Logger
	forecastService *services.ForecastService
	version         string
}

// New creates a new handler instance. version is the build version
// reported by /health.
func New(logger *logging.Logger, forecastService *services.ForecastService, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		logger:          logger,
		forecastService: forecastService,
		version:         version,
	}
}
