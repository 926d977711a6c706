package models

// DateFormat is the wire format for all forecast dates.
const DateFormat = "2006-01-02"

// SeriesPoint is one weekly value on the wire, either observed history
// or a predicted week.
type SeriesPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD, always the anchor weekday
	Value int    `json:"value"`
}

// CategoryForecast is the forecast record for one sales category.
type CategoryForecast struct {
	Category    string        `json:"category"`
	History     []SeriesPoint `json:"history"`
	Forecasting []SeriesPoint `json:"forecasting"`
	Weeks       int           `json:"weeks"`
}

// ProductForecast is the forecast record for one product.
type ProductForecast struct {
	ProductID   string        `json:"product"`
	Name        string        `json:"name,omitempty"`
	History     []SeriesPoint `json:"history"`
	Forecasting []SeriesPoint `json:"forecasting"`
	Weeks       int           `json:"weeks"`
}

// RunSummary aggregates per-entity outcomes of one generation run.
type RunSummary struct {
	RunID      string   `json:"run_id"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at"`
	Categories RunStats `json:"categories"`
	Products   RunStats `json:"products"`
}

// RunStats counts how each entity in a run was resolved.
type RunStats struct {
	Total    int `json:"total"`    // Entities considered
	Modeled  int `json:"modeled"`  // Served by the trend model
	Fallback int `json:"fallback"` // Served by the mean fallback
	Skipped  int `json:"skipped"`  // No usable history at all
}
