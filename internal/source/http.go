package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/demandcast/demandcast/internal/config"
	"github.com/demandcast/demandcast/internal/logging"
	"github.com/demandcast/demandcast/internal/timeseries"
)

const dateFormat = "2006-01-02"

// HTTPProvider fetches sales history from the sales API over HTTP.
type HTTPProvider struct {
	httpClient *http.Client
	logger     *logging.Logger
	baseURL    string
	apiKey     string

	// now is injected so tests can pin the future-date cutoff
	now func() time.Time
}

// salesPoint is one raw observation on the upstream wire.
type salesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// categorySales is the upstream per-category series envelope.
type categorySales struct {
	Category string       `json:"category"`
	Points   []salesPoint `json:"points"`
}

// NewHTTPProvider creates a provider from source configuration.
func NewHTTPProvider(cfg config.SourceConfig, logger *logging.Logger) *HTTPProvider {
	return &HTTPProvider{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		now:        time.Now,
	}
}

// CategoryHistories returns raw observations for every category.
func (p *HTTPProvider) CategoryHistories(ctx context.Context) (map[string][]timeseries.Observation, error) {
	var payload []categorySales
	if err := p.getJSON(ctx, "/category/sales-category", &payload); err != nil {
		return nil, fmt.Errorf("fetch category sales: %w", err)
	}

	histories := make(map[string][]timeseries.Observation, len(payload))
	for _, series := range payload {
		histories[series.Category] = p.cleanObservations(series.Category, series.Points)
	}
	return histories, nil
}

// ListProducts returns the product catalog.
func (p *HTTPProvider) ListProducts(ctx context.Context) ([]ProductRef, error) {
	var products []ProductRef
	if err := p.getJSON(ctx, "/products", &products); err != nil {
		return nil, fmt.Errorf("fetch product catalog: %w", err)
	}
	return products, nil
}

// ProductHistory returns raw observations for one product.
func (p *HTTPProvider) ProductHistory(ctx context.Context, productID string) ([]timeseries.Observation, error) {
	var points []salesPoint
	path := "/product/weekly-sales/" + url.PathEscape(productID)
	if err := p.getJSON(ctx, path, &points); err != nil {
		return nil, fmt.Errorf("fetch product %s sales: %w", productID, err)
	}
	return p.cleanObservations(productID, points), nil
}

// cleanObservations parses raw points, dropping malformed dates,
// negative values and future-dated entries. Drops are logged, never
// fatal: one bad row must not take out an entity's whole history.
func (p *HTTPProvider) cleanObservations(entity string, points []salesPoint) []timeseries.Observation {
	cutoff := p.now().UTC()
	observations := make([]timeseries.Observation, 0, len(points))

	for _, pt := range points {
		date, err := time.ParseInLocation(dateFormat, pt.Date, time.UTC)
		if err != nil {
			p.logger.Warn("Dropping observation with invalid date",
				"entity", entity, "date", pt.Date)
			continue
		}
		if pt.Value < 0 {
			p.logger.Warn("Dropping observation with negative value",
				"entity", entity, "date", pt.Date, "value", pt.Value)
			continue
		}
		if date.After(cutoff) {
			p.logger.Warn("Dropping future-dated observation",
				"entity", entity, "date", pt.Date)
			continue
		}
		observations = append(observations, timeseries.Observation{Date: date, Value: pt.Value})
	}
	return observations
}

// getJSON performs an authenticated GET and decodes the JSON body.
func (p *HTTPProvider) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
