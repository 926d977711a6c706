package forecast

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/demandcast/demandcast/internal/timeseries"
)

// MeanFallbackForecaster is the conservative forecaster used when
// history is too sparse to model or when the fitted model's output is
// judged unreliable. The base level is the arithmetic mean of the full
// history (zero weeks included); every horizon point is the base level
// with independent uniform jitter in ±cfg.JitterPct, rounded and
// clamped to a non-negative integer.
//
// Unlike the trend model this forecaster operates on the raw
// (non-stabilized) series and its output needs no destabilization.
type MeanFallbackForecaster struct{}

// NewMeanFallbackForecaster creates the mean+jitter fallback forecaster
func NewMeanFallbackForecaster() *MeanFallbackForecaster {
	return &MeanFallbackForecaster{}
}

func init() {
	Register("mean_fallback", NewMeanFallbackForecaster())
}

// Name returns the algorithm name
func (f *MeanFallbackForecaster) Name() string {
	return "mean_fallback"
}

// Forecast emits cfg.Horizon weekly points of round(mean * (1 ± jitter)).
func (f *MeanFallbackForecaster) Forecast(history timeseries.Series, cfg Config, rng *rand.Rand) ([]Point, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("empty history")
	}

	mean := history.Mean()
	dates := timeseries.ForecastDates(history.LastDate(), cfg.Anchor, cfg.Horizon)

	points := make([]Point, cfg.Horizon)
	for i, d := range dates {
		value := math.Round(mean * noiseFactor(rng, cfg.JitterPct))
		if value < 0 {
			value = 0
		}
		points[i] = Point{Date: d, Value: value}
	}
	return points, nil
}
