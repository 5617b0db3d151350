// Package analysis derives statistics from daily weather series.
//
// Every function here is pure: inputs are never mutated and results are
// freshly allocated, so callers may run analyses concurrently on shared series.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/i474232898/farm-weather/internal/weather"
)

var (
	// ErrInvalidInput is returned for empty series or records without a usable precipitation value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingColumn is returned when a required column is absent. Dropping
	// temperature data that was never present is not an error.
	ErrMissingColumn = weather.ErrMissingColumn

	// ErrInsufficientData is returned when a series lacks the shape an analysis needs.
	ErrInsufficientData = errors.New("insufficient data")
)

// Rolling window sizes chosen by series span.
const (
	ShortWindow  = 3
	MediumWindow = 7
	LongWindow   = 30
)

// SummarizedRecord is a daily precipitation value with its trailing rolling average.
type SummarizedRecord struct {
	Date           time.Time `json:"date"`
	Precipitation  float64   `json:"precipitationMm"`
	RollingAverage float64   `json:"rollingAverageMm"`
}

// SummarizedSeries has one SummarizedRecord per input record, in input order.
type SummarizedSeries []SummarizedRecord

// QuickStatsResult holds the wettest and driest days of a series.
type QuickStatsResult struct {
	MaxPrecipitation float64   `json:"maxPrecipitationMm"`
	MinPrecipitation float64   `json:"minPrecipitationMm"`
	DayMostRain      time.Time `json:"dayMostRain"`
	DayLeastRain     time.Time `json:"dayLeastRain"`
}

// WindowFor maps a span in days to the rolling window size:
// up to 14 days uses 3, up to 60 days uses 7, anything longer uses 30.
func WindowFor(spanDays int) int {
	switch {
	case spanDays <= 14:
		return ShortWindow
	case spanDays <= 60:
		return MediumWindow
	default:
		return LongWindow
	}
}

// SpanDays returns the whole number of calendar days between the earliest
// and latest record. Order and gaps do not matter.
func SpanDays(series weather.DailySeries) (int, error) {
	if len(series) == 0 {
		return 0, fmt.Errorf("%w: empty series has no date range", ErrInvalidInput)
	}
	lo, hi := weather.Day(series[0].Date), weather.Day(series[0].Date)
	for _, r := range series[1:] {
		d := weather.Day(r.Date)
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	return int(hi.Sub(lo).Hours() / 24), nil
}

// SummarizePrecipitation computes a trailing moving average of precipitation
// whose window adapts to the span of the series. Early positions average over
// the values available so far, so every output has a defined value.
// Temperature fields are not carried into the output.
func SummarizePrecipitation(series weather.DailySeries) (SummarizedSeries, error) {
	span, err := SpanDays(series)
	if err != nil {
		return nil, err
	}
	values, err := precipitationValues(series)
	if err != nil {
		return nil, err
	}

	avg := rollingMean(values, WindowFor(span))

	out := make(SummarizedSeries, len(series))
	for i, r := range series {
		out[i] = SummarizedRecord{
			Date:           r.Date,
			Precipitation:  values[i],
			RollingAverage: avg[i],
		}
	}
	return out, nil
}

// QuickStats finds the maximum and minimum precipitation and the first day each occurred.
func QuickStats(series weather.DailySeries) (QuickStatsResult, error) {
	if len(series) == 0 {
		return QuickStatsResult{}, fmt.Errorf("%w: empty series", ErrInvalidInput)
	}
	values, err := precipitationValues(series)
	if err != nil {
		return QuickStatsResult{}, err
	}

	maxIdx, minIdx := 0, 0
	for i, v := range values {
		if v > values[maxIdx] {
			maxIdx = i
		}
		if v < values[minIdx] {
			minIdx = i
		}
	}
	return QuickStatsResult{
		MaxPrecipitation: values[maxIdx],
		MinPrecipitation: values[minIdx],
		DayMostRain:      series[maxIdx].Date,
		DayLeastRain:     series[minIdx].Date,
	}, nil
}

func precipitationValues(series weather.DailySeries) ([]float64, error) {
	values := make([]float64, len(series))
	for i, r := range series {
		if r.Precipitation == nil {
			return nil, fmt.Errorf("%w: missing precipitation on %s", ErrInvalidInput, r.Date.Format(weather.DateLayout))
		}
		v := *r.Precipitation
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-numeric precipitation on %s", ErrInvalidInput, r.Date.Format(weather.DateLayout))
		}
		values[i] = v
	}
	return values, nil
}

// rollingMean averages at most w trailing values. Each window is summed
// afresh so dry spells average to exactly zero.
func rollingMean(values []float64, w int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - w + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		for _, v := range values[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}
