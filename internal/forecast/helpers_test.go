package forecast

import (
	"math"
	"time"

	"github.com/demandcast/demandcast/internal/timeseries"
)

// weeklySeries builds a Monday-anchored weekly series from raw values.
func weeklySeries(values ...float64) timeseries.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	series := make(timeseries.Series, len(values))
	for i, v := range values {
		series[i] = timeseries.Observation{Date: start.AddDate(0, 0, 7*i), Value: v}
	}
	return series
}

// stabilizedPoints builds forecast points on the log1p scale from raw
// values, dated weekly after the given series.
func stabilizedPoints(history timeseries.Series, rawValues ...float64) []Point {
	dates := timeseries.ForecastDates(history.LastDate(), time.Monday, len(rawValues))
	points := make([]Point, len(rawValues))
	for i, v := range rawValues {
		points[i] = Point{Date: dates[i], Value: math.Log1p(v)}
	}
	return points
}
