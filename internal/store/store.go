package store

import "context"

// Cache file names for the two forecast collections.
const (
	CategoriesFile = "categories_forecast.json"
	ProductsFile   = "products_forecast.json"
	SummaryFile    = "run_summary.json"
)

// Store persists generated forecast collections. Each run overwrites
// the previous collection wholesale; there is no per-entity update.
type Store interface {
	// Save writes the value as JSON under the given name.
	Save(ctx context.Context, name string, value interface{}) error

	// Load reads the JSON stored under name into out.
	Load(ctx context.Context, name string, out interface{}) error
}
