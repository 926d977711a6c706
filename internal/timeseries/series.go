package timeseries

import (
	"errors"
	"sort"
	"time"
)

// ErrInsufficientHistory is returned by Build when the input covers fewer
// than two distinct weeks. The caller is expected to route such entities
// to the fallback forecaster instead of fitting a model.
var ErrInsufficientHistory = errors.New("insufficient history: need at least 2 distinct weeks")

// Observation is a single weekly sales count for one entity.
type Observation struct {
	Date  time.Time
	Value float64
}

// Series is a weekly time series: exactly one observation per calendar
// week, dates strictly increasing with exact 7-day spacing, missing
// weeks filled with value 0.
type Series []Observation

// Build turns raw observations into a gap-filled weekly Series.
//
// Input may be unordered, may contain duplicate dates (last one wins)
// and does not need to cover every week. Each date is snapped to the
// start of its week (the most recent occurrence of anchor on or before
// the date), and every week between the first and last observed week is
// present in the output, zero-filled where the input had no data.
func Build(observations []Observation, anchor time.Weekday) (Series, error) {
	if len(observations) == 0 {
		return nil, ErrInsufficientHistory
	}

	// Bucket by week start, last write wins per week.
	buckets := make(map[time.Time]float64)
	for _, obs := range observations {
		buckets[WeekStart(obs.Date, anchor)] = obs.Value
	}

	weeks := make([]time.Time, 0, len(buckets))
	for w := range buckets {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	first, last := weeks[0], weeks[len(weeks)-1]
	series := make(Series, 0, int(last.Sub(first).Hours()/(24*7))+1)
	for w := first; !w.After(last); w = w.AddDate(0, 0, 7) {
		series = append(series, Observation{Date: w, Value: buckets[w]})
	}

	if len(buckets) < 2 {
		// Single distinct week: return what we have so the caller can
		// still compute a fallback level from it.
		return series, ErrInsufficientHistory
	}
	return series, nil
}

// WeekStart snaps t to the most recent occurrence of anchor on or
// before t, normalized to midnight UTC.
func WeekStart(t time.Time, anchor time.Weekday) time.Time {
	t = t.UTC()
	back := (int(t.Weekday()) - int(anchor) + 7) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, time.UTC)
}

// NextAnchor returns the first occurrence of anchor strictly after t.
func NextAnchor(t time.Time, anchor time.Weekday) time.Time {
	t = t.UTC()
	fwd := (int(anchor) - int(t.Weekday()) + 7) % 7
	if fwd == 0 {
		fwd = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()+fwd, 0, 0, 0, 0, time.UTC)
}

// ForecastDates returns horizon consecutive weekly dates, starting at
// the first occurrence of anchor strictly after last.
func ForecastDates(last time.Time, anchor time.Weekday, horizon int) []time.Time {
	dates := make([]time.Time, horizon)
	next := NextAnchor(last, anchor)
	for i := range dates {
		dates[i] = next.AddDate(0, 0, 7*i)
	}
	return dates
}

// Values returns the series values in order.
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, obs := range s {
		values[i] = obs.Value
	}
	return values
}

// LastDate returns the date of the final observation.
func (s Series) LastDate() time.Time {
	return s[len(s)-1].Date
}

// NonZeroWeeks counts weeks with a strictly positive value. This is the
// eligibility measure that gates whether model fitting is attempted.
func (s Series) NonZeroWeeks() int {
	count := 0
	for _, obs := range s {
		if obs.Value > 0 {
			count++
		}
	}
	return count
}

// Mean returns the arithmetic mean over all weeks, zero weeks included.
func (s Series) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, obs := range s {
		sum += obs.Value
	}
	return sum / float64(len(s))
}

// Max returns the largest value in the series.
func (s Series) Max() float64 {
	maxVal := 0.0
	for _, obs := range s {
		if obs.Value > maxVal {
			maxVal = obs.Value
		}
	}
	return maxVal
}
