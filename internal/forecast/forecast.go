package forecast

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/demandcast/demandcast/internal/timeseries"
)

// ErrModelFitFailed is returned when a model cannot produce a finite fit
// for the given history. Callers treat it the same as an unstable
// forecast and reroute to the fallback forecaster.
var ErrModelFitFailed = errors.New("model fit failed")

// Point is a single forecast prediction. Whether Value is on the
// stabilized (log1p) or original scale depends on the forecaster that
// produced it; see the individual implementations.
type Point struct {
	Date  time.Time
	Value float64
}

// Config holds the tunable parameters shared by all forecasters.
type Config struct {
	Horizon       int          // number of weekly periods to forecast
	Anchor        time.Weekday // weekday every forecast period starts on
	NoisePct      float64      // multiplicative noise band for model output (e.g. 0.025 = ±2.5%)
	JitterPct     float64      // multiplicative jitter band for fallback output (e.g. 0.10 = ±10%)
	SeasonalOrder int          // Fourier order for the monthly seasonal component
	MinDataPoints int          // minimum history length required to fit
}

// DefaultConfig returns the reference configuration: 4-week horizon on
// Mondays, ±2.5% model noise, ±10% fallback jitter.
func DefaultConfig() Config {
	return Config{
		Horizon:       4,
		Anchor:        time.Monday,
		NoisePct:      0.025,
		JitterPct:     0.10,
		SeasonalOrder: 2,
		MinDataPoints: 2,
	}
}

// Forecaster is the interface all forecasting algorithms implement.
// The random source carries all nondeterminism so runs are reproducible
// under a fixed seed.
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// Forecast generates predictions for the next cfg.Horizon weekly periods
	Forecast(history timeseries.Series, cfg Config, rng *rand.Rand) ([]Point, error)
}

// Registry holds available forecasters
var forecasterRegistry = make(map[string]Forecaster)

// Register adds a forecaster to the registry
func Register(name string, forecaster Forecaster) {
	forecasterRegistry[name] = forecaster
}

// Get returns a forecaster by name
func Get(name string) (Forecaster, error) {
	if forecaster, ok := forecasterRegistry[name]; ok {
		return forecaster, nil
	}
	return nil, fmt.Errorf("unknown forecaster: %s", name)
}

// List returns the names of all registered forecasters
func List() []string {
	names := make([]string, 0, len(forecasterRegistry))
	for name := range forecasterRegistry {
		names = append(names, name)
	}
	return names
}

// noiseFactor draws a multiplicative factor uniform in [1-pct, 1+pct].
func noiseFactor(rng *rand.Rand, pct float64) float64 {
	return 1 + (rng.Float64()*2-1)*pct
}
