package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/demandcast/demandcast/internal/timeseries"
)

// Average length of a calendar month in days; the seasonal component
// repeats on this period to capture intra-year cycles such as
// end-of-month demand swings.
const monthlyPeriodDays = 30.44

// TrendSeasonalForecaster fits an additive trend-plus-monthly-seasonality
// model on a stabilized (log1p) series:
// - linear trend estimated by least squares over normalized time
// - monthly seasonality as a low-order Fourier series fit on the
//   detrended residuals
// Each horizon prediction is perturbed by small multiplicative noise so
// the output does not look mechanically smooth next to the history it
// is plotted against. Output stays on the stabilized scale; callers
// destabilize only after the forecast passes instability screening.
type TrendSeasonalForecaster struct{}

// trendSeasonalModel holds the fitted parameters
type trendSeasonalModel struct {
	k float64 // trend slope over normalized time
	m float64 // trend offset

	seasonalCoeffs []float64 // interleaved sin/cos coefficients

	tMin   float64
	tScale float64
}

// NewTrendSeasonalForecaster creates the trend+seasonality forecaster
func NewTrendSeasonalForecaster() *TrendSeasonalForecaster {
	return &TrendSeasonalForecaster{}
}

func init() {
	Register("trend_seasonal", NewTrendSeasonalForecaster())
}

// Name returns the algorithm name
func (f *TrendSeasonalForecaster) Name() string {
	return "trend_seasonal"
}

// Forecast fits the model on the stabilized history and predicts the
// next cfg.Horizon weekly periods on the stabilized scale.
func (f *TrendSeasonalForecaster) Forecast(history timeseries.Series, cfg Config, rng *rand.Rand) ([]Point, error) {
	if len(history) < cfg.MinDataPoints {
		return nil, fmt.Errorf("%w: need at least %d points, got %d", ErrModelFitFailed, cfg.MinDataPoints, len(history))
	}

	model, err := f.fit(history, cfg.SeasonalOrder)
	if err != nil {
		return nil, err
	}

	dates := timeseries.ForecastDates(history.LastDate(), cfg.Anchor, cfg.Horizon)
	points := make([]Point, cfg.Horizon)
	for i, d := range dates {
		value := f.predict(model, d) * noiseFactor(rng, cfg.NoisePct)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("%w: non-finite prediction at %s", ErrModelFitFailed, d.Format("2006-01-02"))
		}
		points[i] = Point{Date: d, Value: value}
	}
	return points, nil
}

// fit estimates trend and seasonal parameters from the history
func (f *TrendSeasonalForecaster) fit(history timeseries.Series, order int) (*trendSeasonalModel, error) {
	n := len(history)
	model := &trendSeasonalModel{}

	model.tMin = float64(history[0].Date.Unix())
	model.tScale = float64(history.LastDate().Unix()) - model.tMin
	if model.tScale <= 0 {
		return nil, fmt.Errorf("%w: degenerate time range", ErrModelFitFailed)
	}

	// Normalize time to [0, 1]
	t := make([]float64, n)
	y := make([]float64, n)
	for i, obs := range history {
		t[i] = (float64(obs.Date.Unix()) - model.tMin) / model.tScale
		y[i] = obs.Value
	}

	// Least-squares linear trend
	sumT, sumY, sumTY, sumT2 := 0.0, 0.0, 0.0, 0.0
	for i := range t {
		sumT += t[i]
		sumY += y[i]
		sumTY += t[i] * y[i]
		sumT2 += t[i] * t[i]
	}
	nf := float64(n)
	denom := nf*sumT2 - sumT*sumT
	if denom == 0 {
		model.k = 0
		model.m = sumY / nf
	} else {
		model.k = (nf*sumTY - sumT*sumY) / denom
		model.m = (sumY - model.k*sumT) / nf
	}
	if math.IsNaN(model.k) || math.IsNaN(model.m) {
		return nil, fmt.Errorf("%w: non-finite trend coefficients", ErrModelFitFailed)
	}

	// Fit the monthly seasonal component on the detrended residuals
	detrended := make([]float64, n)
	for i := range t {
		detrended[i] = y[i] - (model.k*t[i] + model.m)
	}
	model.seasonalCoeffs = fitFourier(history, detrended, monthlyPeriodDays, order)

	return model, nil
}

// fitFourier fits Fourier coefficients for one seasonal period using
// per-harmonic least squares, matching the detrended residuals.
func fitFourier(history timeseries.Series, detrended []float64, periodDays float64, order int) []float64 {
	coeffs := make([]float64, 2*order)
	periodSec := periodDays * 24 * 3600

	for k := 1; k <= order; k++ {
		sinSum, cosSum := 0.0, 0.0
		sinSqSum, cosSqSum := 0.0, 0.0

		for i, obs := range history {
			phase := 2 * math.Pi * float64(k) * float64(obs.Date.Unix()) / periodSec
			sinVal := math.Sin(phase)
			cosVal := math.Cos(phase)

			sinSum += detrended[i] * sinVal
			cosSum += detrended[i] * cosVal
			sinSqSum += sinVal * sinVal
			cosSqSum += cosVal * cosVal
		}

		if sinSqSum > 0 {
			coeffs[2*(k-1)] = sinSum / sinSqSum
		}
		if cosSqSum > 0 {
			coeffs[2*(k-1)+1] = cosSum / cosSqSum
		}
	}
	return coeffs
}

// seasonalAt evaluates the fitted Fourier series at a given time
func seasonalAt(coeffs []float64, t time.Time, periodDays float64) float64 {
	periodSec := periodDays * 24 * 3600
	tSec := float64(t.Unix())

	result := 0.0
	for k := 1; k <= len(coeffs)/2; k++ {
		phase := 2 * math.Pi * float64(k) * tSec / periodSec
		result += coeffs[2*(k-1)] * math.Sin(phase)
		result += coeffs[2*(k-1)+1] * math.Cos(phase)
	}
	return result
}

// predict evaluates trend + seasonality at a given date
func (f *TrendSeasonalForecaster) predict(model *trendSeasonalModel, d time.Time) float64 {
	tNorm := (float64(d.Unix()) - model.tMin) / model.tScale
	return model.k*tNorm + model.m + seasonalAt(model.seasonalCoeffs, d, monthlyPeriodDays)
}
