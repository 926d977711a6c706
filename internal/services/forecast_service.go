package services

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/demandcast/demandcast/internal/config"
	"github.com/demandcast/demandcast/internal/forecast"
	"github.com/demandcast/demandcast/internal/logging"
	"github.com/demandcast/demandcast/internal/models"
	"github.com/demandcast/demandcast/internal/queue"
	"github.com/demandcast/demandcast/internal/source"
	"github.com/demandcast/demandcast/internal/store"
	"github.com/demandcast/demandcast/internal/timeseries"
)

// SubjectRunCompleted is the queue subject run events are published on.
const SubjectRunCompleted = "forecast.runs"

// ForecastService orchestrates forecast generation: it pulls raw sales
// history, builds weekly series, routes each entity through the model
// or the fallback, and persists the resulting collections.
type ForecastService struct {
	logger   *logging.Logger
	provider source.Provider
	store    store.Store

	model    forecast.Forecaster
	fallback forecast.Forecaster
	detector *forecast.InstabilityDetector

	forecastCfg config.ForecastConfig
	modelCfg    forecast.Config

	mirror    *store.RedisCache // optional read replica cache
	publisher queue.Publisher   // optional run event sink

	running atomic.Bool
}

// NewForecastService creates a ForecastService with forecasters
// resolved from the registry.
func NewForecastService(
	logger *logging.Logger,
	provider source.Provider,
	st store.Store,
	forecastCfg config.ForecastConfig,
	detectorCfg config.DetectorConfig,
) (*ForecastService, error) {
	model, err := forecast.Get("trend_seasonal")
	if err != nil {
		return nil, err
	}
	fallback, err := forecast.Get("mean_fallback")
	if err != nil {
		return nil, err
	}

	modelCfg := forecast.DefaultConfig()
	modelCfg.Horizon = forecastCfg.HorizonWeeks
	modelCfg.Anchor = forecastCfg.Anchor()
	modelCfg.NoisePct = forecastCfg.ModelNoisePct
	modelCfg.JitterPct = forecastCfg.FallbackJitterPct
	if forecastCfg.SeasonalOrder > 0 {
		modelCfg.SeasonalOrder = forecastCfg.SeasonalOrder
	}

	detector := forecast.NewInstabilityDetector(forecast.DetectorConfig{
		MaxRatio:       detectorCfg.MaxRatio,
		SpikeRatio:     detectorCfg.SpikeRatio,
		MeanRatio:      detectorCfg.MeanRatio,
		MinRatio:       detectorCfg.MinRatio,
		ReferenceWeeks: detectorCfg.ReferenceWeeks,
		FlatTolerance:  detectorCfg.FlatTolerance,
		MinHistoryCV:   detectorCfg.MinHistoryCV,
	})

	return &ForecastService{
		logger:      logger,
		provider:    provider,
		store:       st,
		model:       model,
		fallback:    fallback,
		detector:    detector,
		forecastCfg: forecastCfg,
		modelCfg:    modelCfg,
	}, nil
}

// WithMirror attaches an optional Redis mirror for generated collections.
func (s *ForecastService) WithMirror(mirror *store.RedisCache) *ForecastService {
	s.mirror = mirror
	return s
}

// WithPublisher attaches an optional queue publisher for run events.
func (s *ForecastService) WithPublisher(publisher queue.Publisher) *ForecastService {
	s.publisher = publisher
	return s
}

// entityOutcome classifies how one entity's forecast was resolved.
type entityOutcome int

const (
	outcomeModeled entityOutcome = iota
	outcomeFallback
	outcomeSkipped
)

// entityResult is the per-entity output of the forecasting state machine.
type entityResult struct {
	history     []models.SeriesPoint
	forecasting []models.SeriesPoint
	outcome     entityOutcome
	reason      string // error code explaining fallback/skip, empty when modeled
}

// forecastEntity runs one entity through the pipeline:
// build series -> eligibility gate -> model -> stability check,
// with the mean fallback as the landing spot for every failure path.
func (s *ForecastService) forecastEntity(key string, observations []timeseries.Observation, rng *rand.Rand) entityResult {
	series, err := timeseries.Build(observations, s.modelCfg.Anchor)
	if len(series) == 0 {
		return entityResult{outcome: outcomeSkipped, reason: CodeInsufficientHistory}
	}

	history := historyPoints(series)

	// Eligibility gate: entities without enough active weeks go
	// straight to the fallback, no model attempt.
	if err != nil || series.NonZeroWeeks() < s.forecastCfg.MinEligibleWeeks {
		return s.fallbackResult(key, series, history, CodeInsufficientHistory, rng)
	}

	stabilized := timeseries.Stabilize(series)
	points, err := s.model.Forecast(stabilized, s.modelCfg, rng)
	if err != nil {
		s.logger.Warn("Model fit failed, using fallback",
			"entity", key, "error", err)
		return s.fallbackResult(key, series, history, CodeModelFitFailed, rng)
	}

	if s.detector.IsUnstable(series, points) {
		s.logger.Warn("Unstable forecast discarded, using fallback",
			"entity", key, "weeks", len(series))
		return s.fallbackResult(key, series, history, CodeInstabilityDetected, rng)
	}

	forecasting := make([]models.SeriesPoint, len(points))
	for i, p := range points {
		forecasting[i] = models.SeriesPoint{
			Date:  p.Date.Format(models.DateFormat),
			Value: timeseries.Destabilize(p.Value),
		}
	}
	return entityResult{history: history, forecasting: forecasting, outcome: outcomeModeled}
}

// fallbackResult produces the mean+jitter forecast for an entity.
func (s *ForecastService) fallbackResult(key string, series timeseries.Series, history []models.SeriesPoint, reason string, rng *rand.Rand) entityResult {
	points, err := s.fallback.Forecast(series, s.modelCfg, rng)
	if err != nil {
		s.logger.Warn("Fallback forecast failed, skipping entity",
			"entity", key, "error", err)
		return entityResult{outcome: outcomeSkipped, reason: reason}
	}

	forecasting := make([]models.SeriesPoint, len(points))
	for i, p := range points {
		forecasting[i] = models.SeriesPoint{
			Date:  p.Date.Format(models.DateFormat),
			Value: int(p.Value),
		}
	}
	return entityResult{history: history, forecasting: forecasting, outcome: outcomeFallback, reason: reason}
}

// GenerateCategoryForecasts builds forecasts for every category.
func (s *ForecastService) GenerateCategoryForecasts(ctx context.Context, runSeed int64) ([]models.CategoryForecast, models.RunStats, error) {
	histories, err := s.provider.CategoryHistories(ctx)
	if err != nil {
		return nil, models.RunStats{}, NewServiceErrorWithDetails(CodeSourceUnavailable,
			"Failed to fetch category sales history",
			map[string]interface{}{"error": err.Error()})
	}

	keys := make([]string, 0, len(histories))
	for key := range histories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	results := make([]entityResult, len(keys))
	tasks := make([]func(), len(keys))
	for i, key := range keys {
		i, key := i, key
		tasks[i] = func() {
			rng := rand.New(rand.NewSource(entitySeed(runSeed, key)))
			results[i] = s.forecastEntity(key, histories[key], rng)
		}
	}
	runParallel(s.forecastCfg.Workers, tasks)

	stats := models.RunStats{Total: len(keys)}
	forecasts := make([]models.CategoryForecast, 0, len(keys))
	for i, key := range keys {
		res := results[i]
		if s.tally(&stats, key, res) {
			continue
		}
		forecasts = append(forecasts, models.CategoryForecast{
			Category:    key,
			History:     res.history,
			Forecasting: res.forecasting,
			Weeks:       s.modelCfg.Horizon,
		})
	}
	return forecasts, stats, nil
}

// GenerateProductForecasts builds forecasts for every product in the
// catalog. History fetch and forecasting run together inside the
// worker pool, so slow upstream responses overlap.
func (s *ForecastService) GenerateProductForecasts(ctx context.Context, runSeed int64) ([]models.ProductForecast, models.RunStats, error) {
	products, err := s.provider.ListProducts(ctx)
	if err != nil {
		return nil, models.RunStats{}, NewServiceErrorWithDetails(CodeSourceUnavailable,
			"Failed to fetch product catalog",
			map[string]interface{}{"error": err.Error()})
	}

	results := make([]entityResult, len(products))
	tasks := make([]func(), len(products))
	for i, product := range products {
		i, product := i, product
		tasks[i] = func() {
			observations, err := s.provider.ProductHistory(ctx, product.ID)
			if err != nil {
				s.logger.Warn("Failed to fetch product history, skipping",
					"product", product.ID, "error", err)
				results[i] = entityResult{outcome: outcomeSkipped, reason: CodeSourceUnavailable}
				return
			}
			rng := rand.New(rand.NewSource(entitySeed(runSeed, product.ID)))
			results[i] = s.forecastEntity(product.ID, observations, rng)
		}
	}
	runParallel(s.forecastCfg.Workers, tasks)

	stats := models.RunStats{Total: len(products)}
	forecasts := make([]models.ProductForecast, 0, len(products))
	for i, product := range products {
		res := results[i]
		if s.tally(&stats, product.ID, res) {
			continue
		}
		forecasts = append(forecasts, models.ProductForecast{
			ProductID:   product.ID,
			Name:        product.Name,
			History:     res.history,
			Forecasting: res.forecasting,
			Weeks:       s.modelCfg.Horizon,
		})
	}
	return forecasts, stats, nil
}

// tally updates run stats for one entity and reports whether the
// entity was skipped.
func (s *ForecastService) tally(stats *models.RunStats, key string, res entityResult) bool {
	switch res.outcome {
	case outcomeModeled:
		stats.Modeled++
	case outcomeFallback:
		stats.Fallback++
	case outcomeSkipped:
		stats.Skipped++
		s.logger.Info("Entity skipped", "entity", key, "reason", res.reason)
		return true
	}
	return false
}

// Run executes one full generation run: categories and products,
// persisted wholesale, mirrored and announced. Only one run may be in
// flight at a time.
func (s *ForecastService) Run(ctx context.Context) (*models.RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, NewServiceError(CodeRunInProgress, "A forecast generation run is already in progress")
	}
	defer s.running.Store(false)

	return s.execute(ctx, uuid.New().String())
}

// StartRun begins a generation run in the background and returns its
// run ID immediately. The run outlives the caller's request context.
func (s *ForecastService) StartRun() (string, error) {
	if !s.running.CompareAndSwap(false, true) {
		return "", NewServiceError(CodeRunInProgress, "A forecast generation run is already in progress")
	}

	runID := uuid.New().String()
	go func() {
		defer s.running.Store(false)
		if _, err := s.execute(context.Background(), runID); err != nil {
			s.logger.Error("Forecast generation run failed", "run_id", runID, "error", err)
		}
	}()
	return runID, nil
}

func (s *ForecastService) execute(ctx context.Context, runID string) (*models.RunSummary, error) {
	ctx = logging.WithRunID(ctx, runID)
	startedAt := time.Now().UTC()

	runSeed := s.forecastCfg.Seed
	if runSeed == 0 {
		runSeed = startedAt.UnixNano()
	}

	logging.InfoCtx(ctx, "Forecast generation run started", "seed", runSeed)

	categories, categoryStats, err := s.GenerateCategoryForecasts(ctx, runSeed)
	if err != nil {
		return nil, err
	}
	products, productStats, err := s.GenerateProductForecasts(ctx, runSeed)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, store.CategoriesFile, categories); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, store.ProductsFile, products); err != nil {
		return nil, err
	}

	summary := &models.RunSummary{
		RunID:      runID,
		StartedAt:  startedAt.Format(time.RFC3339),
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
		Categories: categoryStats,
		Products:   productStats,
	}
	if err := s.store.Save(ctx, store.SummaryFile, summary); err != nil {
		return nil, err
	}

	// Mirror and announce best-effort: the file store is the system of
	// record, so neither failure aborts a completed run.
	if s.mirror != nil {
		if err := s.mirror.Save(ctx, store.CategoriesFile, categories); err != nil {
			logging.WarnCtx(ctx, "Failed to mirror category forecasts", "error", err)
		}
		if err := s.mirror.Save(ctx, store.ProductsFile, products); err != nil {
			logging.WarnCtx(ctx, "Failed to mirror product forecasts", "error", err)
		}
	}
	if s.publisher != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.publisher.Publish(ctx, SubjectRunCompleted, data); err != nil {
				logging.WarnCtx(ctx, "Failed to publish run event", "error", err)
			}
		}
	}

	logging.InfoCtx(ctx, "Forecast generation run completed",
		"categories_total", categoryStats.Total,
		"categories_modeled", categoryStats.Modeled,
		"categories_fallback", categoryStats.Fallback,
		"categories_skipped", categoryStats.Skipped,
		"products_total", productStats.Total,
		"products_modeled", productStats.Modeled,
		"products_fallback", productStats.Fallback,
		"products_skipped", productStats.Skipped,
	)
	return summary, nil
}

// Running reports whether a generation run is currently in flight.
func (s *ForecastService) Running() bool {
	return s.running.Load()
}

// CachedCategoryForecasts returns the persisted category collection,
// preferring the Redis mirror when configured.
func (s *ForecastService) CachedCategoryForecasts(ctx context.Context) ([]models.CategoryForecast, error) {
	var forecasts []models.CategoryForecast
	if s.mirror != nil {
		if err := s.mirror.Load(ctx, store.CategoriesFile, &forecasts); err == nil {
			return forecasts, nil
		}
	}
	if err := s.store.Load(ctx, store.CategoriesFile, &forecasts); err != nil {
		return nil, NewServiceError(CodeForecastNotAvailable,
			"Category forecasts have not been generated yet")
	}
	return forecasts, nil
}

// CachedProductForecasts returns the persisted product collection,
// preferring the Redis mirror when configured.
func (s *ForecastService) CachedProductForecasts(ctx context.Context) ([]models.ProductForecast, error) {
	var forecasts []models.ProductForecast
	if s.mirror != nil {
		if err := s.mirror.Load(ctx, store.ProductsFile, &forecasts); err == nil {
			return forecasts, nil
		}
	}
	if err := s.store.Load(ctx, store.ProductsFile, &forecasts); err != nil {
		return nil, NewServiceError(CodeForecastNotAvailable,
			"Product forecasts have not been generated yet")
	}
	return forecasts, nil
}

// historyPoints converts a weekly series to wire points.
func historyPoints(series timeseries.Series) []models.SeriesPoint {
	points := make([]models.SeriesPoint, len(series))
	for i, obs := range series {
		points[i] = models.SeriesPoint{
			Date:  obs.Date.Format(models.DateFormat),
			Value: int(math.Round(obs.Value)),
		}
	}
	return points
}

// entitySeed derives a deterministic per-entity seed so concurrent
// scheduling order cannot change any entity's output.
func entitySeed(runSeed int64, key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return runSeed ^ int64(h.Sum64())
}
