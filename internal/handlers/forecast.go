package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/demandcast/demandcast/internal/models"
	"github.com/demandcast/demandcast/internal/services"
)

// ListCategoryForecasts handles GET /v1/forecasts/categories
func (h *Handler) ListCategoryForecasts(c *fiber.Ctx) error {
	forecasts, err := h.forecastService.CachedCategoryForecasts(c.Context())
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(models.CategoryListResponse{
		Forecasts: forecasts,
		Count:     len(forecasts),
	})
}

// GetCategoryForecast handles GET /v1/forecasts/categories/:category
func (h *Handler) GetCategoryForecast(c *fiber.Ctx) error {
	category := c.Params("category")

	forecasts, err := h.forecastService.CachedCategoryForecasts(c.Context())
	if err != nil {
		return h.serviceError(c, err)
	}

	for _, forecast := range forecasts {
		if forecast.Category == category {
			return c.JSON(forecast)
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "CATEGORY_NOT_FOUND",
			Message: "No forecast exists for this category",
			Details: map[string]interface{}{"category": category},
		},
	})
}

// ListProductForecasts handles GET /v1/forecasts/products
func (h *Handler) ListProductForecasts(c *fiber.Ctx) error {
	forecasts, err := h.forecastService.CachedProductForecasts(c.Context())
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(models.ProductListResponse{
		Forecasts: forecasts,
		Count:     len(forecasts),
	})
}

// GetProductForecast handles GET /v1/forecasts/products/:product_id
func (h *Handler) GetProductForecast(c *fiber.Ctx) error {
	productID := c.Params("product_id")

	forecasts, err := h.forecastService.CachedProductForecasts(c.Context())
	if err != nil {
		return h.serviceError(c, err)
	}

	for _, forecast := range forecasts {
		if forecast.ProductID == productID {
			return c.JSON(forecast)
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "PRODUCT_NOT_FOUND",
			Message: "No forecast exists for this product",
			Details: map[string]interface{}{"product": productID},
		},
	})
}

// Refresh handles POST /v1/forecasts/refresh
//
// Generation runs in the background; the response acknowledges the run
// with its ID so callers can correlate the eventual run event.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	runID, err := h.forecastService.StartRun()
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(models.RefreshResponse{
		RunID:   runID,
		Status:  "accepted",
		Message: "Forecast generation started",
	})
}

// serviceError maps service layer errors to HTTP responses.
func (h *Handler) serviceError(c *fiber.Ctx, err error) error {
	if svcErr, ok := err.(*services.ServiceError); ok {
		status := fiber.StatusInternalServerError
		switch svcErr.Code {
		case services.CodeForecastNotAvailable:
			status = fiber.StatusNotFound
		case services.CodeRunInProgress:
			status = fiber.StatusConflict
		case services.CodeSourceUnavailable:
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	h.logger.Error("Unhandled service error", "error", err, "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
