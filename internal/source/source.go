package source

import (
	"context"

	"github.com/demandcast/demandcast/internal/timeseries"
)

// ProductRef identifies one product in the upstream catalog.
type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Provider supplies raw sales history from the upstream sales API.
// Observations come back unordered and unvalidated beyond basic
// hygiene; series construction is the caller's job.
type Provider interface {
	// CategoryHistories returns raw observations per category.
	CategoryHistories(ctx context.Context) (map[string][]timeseries.Observation, error)

	// ListProducts returns the product catalog.
	ListProducts(ctx context.Context) ([]ProductRef, error)

	// ProductHistory returns raw observations for one product.
	ProductHistory(ctx context.Context, productID string) ([]timeseries.Observation, error)
}
