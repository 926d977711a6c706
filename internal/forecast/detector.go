package forecast

import (
	"math"
	"sort"

	"github.com/demandcast/demandcast/internal/timeseries"
)

// DetectorConfig holds the tunable thresholds for instability screening.
// The multipliers are deliberately configuration, not constants: they
// encode judgment calls about what "diverges sharply from history"
// means for a given dataset.
type DetectorConfig struct {
	// MaxRatio flags a forecast whose destabilized maximum exceeds this
	// multiple of the largest historical value.
	MaxRatio float64

	// SpikeRatio flags a forecast whose destabilized maximum exceeds
	// this multiple of the median positive historical value. The median
	// is robust to one-week spikes that inflate the historical maximum,
	// which is exactly when a trend fit goes off the rails.
	SpikeRatio float64

	// MeanRatio flags a forecast whose destabilized mean exceeds this
	// multiple of the mean of the last ReferenceWeeks weeks.
	MeanRatio float64

	// MinRatio flags a forecast whose destabilized mean falls below this
	// fraction of the recent mean while recent demand is positive.
	MinRatio float64

	// ReferenceWeeks is the size of the trailing history window used for
	// the mean comparisons.
	ReferenceWeeks int

	// FlatTolerance is the destabilized forecast spread (max - min) at
	// or below which the forecast counts as degenerate.
	FlatTolerance float64

	// MinHistoryCV is the history coefficient of variation above which a
	// degenerate flat forecast is considered a failed fit rather than a
	// genuinely flat signal.
	MinHistoryCV float64
}

// DefaultDetectorConfig returns the reference thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MaxRatio:       5.0,
		SpikeRatio:     10.0,
		MeanRatio:      1.5,
		MinRatio:       0.1,
		ReferenceWeeks: 3,
		FlatTolerance:  0.5,
		MinHistoryCV:   0.25,
	}
}

// InstabilityDetector classifies a candidate model forecast as stable or
// unstable. It is a pure function of its inputs: same history and
// forecast always produce the same verdict.
type InstabilityDetector struct {
	cfg DetectorConfig
}

// NewInstabilityDetector creates a detector with the given thresholds
func NewInstabilityDetector(cfg DetectorConfig) *InstabilityDetector {
	return &InstabilityDetector{cfg: cfg}
}

// IsUnstable reports whether the forecast should be discarded in favor
// of the fallback. The forecast is on the stabilized (log1p) scale; the
// history is on the original scale. Rules, in order:
//  1. any forecast value destabilizes to a negative or non-finite number
//  2. the forecast magnitude diverges sharply from history
//  3. the forecast is flat while the history has meaningful variance
func (d *InstabilityDetector) IsUnstable(history timeseries.Series, forecast []Point) bool {
	if len(forecast) == 0 {
		return true
	}

	destabilized := make([]float64, len(forecast))
	for i, p := range forecast {
		raw := math.Expm1(p.Value)
		if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < -0.5 {
			return true
		}
		destabilized[i] = float64(timeseries.Destabilize(p.Value))
	}

	if d.diverges(history, destabilized) {
		return true
	}
	return d.flatAgainstVaryingHistory(history, destabilized)
}

// diverges applies the magnitude rules (rule 2)
func (d *InstabilityDetector) diverges(history timeseries.Series, forecast []float64) bool {
	maxFore, sumFore := 0.0, 0.0
	for _, v := range forecast {
		if v > maxFore {
			maxFore = v
		}
		sumFore += v
	}
	meanFore := sumFore / float64(len(forecast))

	if maxHist := history.Max(); maxHist > 0 && maxFore > d.cfg.MaxRatio*maxHist {
		return true
	}
	if med := medianPositive(history); med > 0 && maxFore > d.cfg.SpikeRatio*med {
		return true
	}

	refMean := trailingMean(history, d.cfg.ReferenceWeeks)
	if refMean > 0 {
		if meanFore > d.cfg.MeanRatio*refMean {
			return true
		}
		if meanFore < d.cfg.MinRatio*refMean {
			return true
		}
	}
	return false
}

// flatAgainstVaryingHistory applies the degeneracy rule (rule 3): a
// near-constant forecast over a history with real variance means the
// model is just echoing a level, which should go through the explicit
// fallback path instead.
func (d *InstabilityDetector) flatAgainstVaryingHistory(history timeseries.Series, forecast []float64) bool {
	minFore, maxFore := forecast[0], forecast[0]
	for _, v := range forecast[1:] {
		if v < minFore {
			minFore = v
		}
		if v > maxFore {
			maxFore = v
		}
	}
	if maxFore-minFore > d.cfg.FlatTolerance {
		return false
	}

	mean := history.Mean()
	if mean <= 0 {
		return false
	}
	varianceSum := 0.0
	for _, obs := range history {
		diff := obs.Value - mean
		varianceSum += diff * diff
	}
	cv := math.Sqrt(varianceSum/float64(len(history))) / mean
	return cv > d.cfg.MinHistoryCV
}

// medianPositive returns the median of the strictly positive history
// values, or 0 when the history has none.
func medianPositive(history timeseries.Series) float64 {
	positive := make([]float64, 0, len(history))
	for _, obs := range history {
		if obs.Value > 0 {
			positive = append(positive, obs.Value)
		}
	}
	if len(positive) == 0 {
		return 0
	}
	sort.Float64s(positive)
	mid := len(positive) / 2
	if len(positive)%2 == 1 {
		return positive[mid]
	}
	return (positive[mid-1] + positive[mid]) / 2
}

// trailingMean returns the mean of the last n weeks of history (or the
// whole history when shorter).
func trailingMean(history timeseries.Series, n int) float64 {
	if n <= 0 || n > len(history) {
		n = len(history)
	}
	sum := 0.0
	for _, obs := range history[len(history)-n:] {
		sum += obs.Value
	}
	return sum / float64(n)
}
