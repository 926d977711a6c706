package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/demandcast/demandcast/internal/config"
	"github.com/demandcast/demandcast/internal/handlers"
	"github.com/demandcast/demandcast/internal/logging"
	"github.com/demandcast/demandcast/internal/middleware"
	"github.com/demandcast/demandcast/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, forecastService *services.ForecastService, cfg config.Config, version string) *handlers.Handler {
	h := handlers.New(logger, forecastService, version)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// API key authentication middleware
	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", authMiddleware)

	// Forecast Read Routes
	v1.Get("/forecasts/categories", h.ListCategoryForecasts)
	v1.Get("/forecasts/categories/:category", h.GetCategoryForecast)
	v1.Get("/forecasts/products", h.ListProductForecasts)
	v1.Get("/forecasts/products/:product_id", h.GetProductForecast)

	// Regeneration Route
	v1.Post("/forecasts/refresh", h.Refresh)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, forecastService *services.ForecastService, cfg config.Config, version string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Demandcast API",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, forecastService, cfg, version)

	return app
}
