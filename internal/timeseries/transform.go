package timeseries

import "math"

// Sales counts are right-skewed with occasional heavy spikes. Fitting on
// the raw scale lets one outlier week dominate the regression, so the
// model always sees log1p-compressed values and results are mapped back
// with expm1 only after stability screening.

// StabilizeValue applies the variance-stabilizing transform log(1 + v).
func StabilizeValue(v float64) float64 {
	if v < 0 {
		v = 0
	}
	return math.Log1p(v)
}

// Stabilize returns a copy of the series with log1p applied to every value.
func Stabilize(s Series) Series {
	out := make(Series, len(s))
	for i, obs := range s {
		out[i] = Observation{Date: obs.Date, Value: StabilizeValue(obs.Value)}
	}
	return out
}

// Destabilize inverts StabilizeValue and rounds to a unit count:
// exp(x) - 1, clamped to zero, rounded to the nearest integer.
func Destabilize(x float64) int {
	raw := math.Expm1(x)
	if raw < 0 || math.IsNaN(raw) {
		return 0
	}
	return int(math.Round(raw))
}
