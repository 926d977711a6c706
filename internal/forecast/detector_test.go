package forecast

import (
	"math"
	"testing"
)

func TestDefaultDetectorConfig(t *testing.T) {
	cfg := DefaultDetectorConfig()

	if cfg.MaxRatio != 5.0 {
		t.Errorf("Expected MaxRatio=5.0, got %f", cfg.MaxRatio)
	}
	if cfg.MeanRatio != 1.5 {
		t.Errorf("Expected MeanRatio=1.5, got %f", cfg.MeanRatio)
	}
	if cfg.SpikeRatio != 10.0 {
		t.Errorf("Expected SpikeRatio=10.0, got %f", cfg.SpikeRatio)
	}
	if cfg.ReferenceWeeks != 3 {
		t.Errorf("Expected ReferenceWeeks=3, got %d", cfg.ReferenceWeeks)
	}
}

func TestInstabilityDetector_StableForecast(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())
	history := weeklySeries(10, 12, 9, 11, 10, 13, 11, 12)
	forecast := stabilizedPoints(history, 11, 12, 10, 11)

	if d.IsUnstable(history, forecast) {
		t.Error("Expected stable verdict for forecast near the historical level")
	}
}

func TestInstabilityDetector_EmptyForecast(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())
	history := weeklySeries(10, 12, 9)

	if !d.IsUnstable(history, nil) {
		t.Error("Expected unstable verdict for empty forecast")
	}
}

func TestInstabilityDetector_NonFiniteValue(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())
	history := weeklySeries(10, 12, 9, 11)

	forecast := stabilizedPoints(history, 10, 10, 10, 10)
	forecast[2].Value = math.NaN()
	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for NaN forecast value")
	}

	forecast = stabilizedPoints(history, 10, 10, 10, 10)
	forecast[0].Value = math.Inf(1)
	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for infinite forecast value")
	}
}

func TestInstabilityDetector_NegativeValue(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())
	history := weeklySeries(10, 12, 9, 11)

	// expm1(-1) is about -0.63, well below zero on the original scale
	forecast := stabilizedPoints(history, 10, 10, 10, 10)
	forecast[1].Value = -1.0
	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for negative destabilized value")
	}
}

func TestInstabilityDetector_ExplosiveForecast(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())
	history := weeklySeries(10, 12, 9, 11, 10, 13)

	// Forecast maximum is far above 5x the historical maximum
	forecast := stabilizedPoints(history, 10, 11, 200, 12)
	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for explosive forecast")
	}
}

func TestInstabilityDetector_SpikeDistortedHistory(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())

	// Nine quiet weeks plus one extreme spike. A trend fit on this
	// history extrapolates hundreds of units per week; the median-based
	// rule must catch it even though the spike inflates the historical
	// maximum and recent mean far above the forecast level.
	history := weeklySeries(10, 10, 10, 10, 10, 10, 10, 10, 10, 10000)
	forecast := stabilizedPoints(history, 400, 500, 600, 660)

	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for fit distorted by a one-week spike")
	}
}

func TestInstabilityDetector_MeanRunaway(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())
	history := weeklySeries(10, 10, 10, 10, 10, 10, 10, 10)

	// Mean forecast is 2x the recent mean, above the 1.5x threshold,
	// while staying under the max and spike ratios
	forecast := stabilizedPoints(history, 20, 20, 20, 20)
	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for forecast mean above 1.5x recent mean")
	}
}

func TestInstabilityDetector_CollapseToZero(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())
	history := weeklySeries(100, 100, 100, 100, 100, 100)

	forecast := stabilizedPoints(history, 5, 5, 5, 5)
	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for forecast collapsing toward zero")
	}
}

func TestInstabilityDetector_FlatForecastVaryingHistory(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())

	// High-variance history; a perfectly flat forecast near the overall
	// level passes the magnitude rules but fails the degeneracy rule
	history := weeklySeries(10, 100, 10, 100, 10, 100, 10, 100)
	forecast := stabilizedPoints(history, 60, 60, 60, 60)

	if !d.IsUnstable(history, forecast) {
		t.Error("Expected unstable verdict for flat forecast over varying history")
	}
}

func TestInstabilityDetector_FlatForecastFlatHistory(t *testing.T) {
	d := NewInstabilityDetector(DefaultDetectorConfig())

	// Flat forecast over flat history is the honest answer, not a defect
	history := weeklySeries(50, 50, 50, 50, 50, 50)
	forecast := stabilizedPoints(history, 50, 50, 50, 50)

	if d.IsUnstable(history, forecast) {
		t.Error("Expected stable verdict for flat forecast over flat history")
	}
}

func TestInstabilityDetector_CustomThresholds(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.MeanRatio = 3.0
	d := NewInstabilityDetector(cfg)

	history := weeklySeries(10, 10, 10, 10, 10, 10, 10, 10)
	forecast := stabilizedPoints(history, 20, 20, 20, 20)

	// 2x the recent mean is fine once the threshold is relaxed to 3x
	if d.IsUnstable(history, forecast) {
		t.Error("Expected stable verdict with relaxed MeanRatio")
	}
}

func TestMedianPositive(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0, 0}, 0},
		{"odd count", []float64{10, 0, 30, 20, 0}, 20},
		{"even count", []float64{10, 20, 30, 40}, 25},
		{"spike ignored", []float64{10, 10, 10, 10000}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := medianPositive(weeklySeries(tt.values...))
			if result != tt.expected {
				t.Errorf("Expected median=%f, got %f", tt.expected, result)
			}
		})
	}
}

func TestTrailingMean(t *testing.T) {
	history := weeklySeries(1, 2, 3, 10, 20, 30)

	if got := trailingMean(history, 3); got != 20 {
		t.Errorf("Expected trailing mean 20, got %f", got)
	}
	if got := trailingMean(history, 100); got != 11 {
		t.Errorf("Expected full mean 11, got %f", got)
	}
}
