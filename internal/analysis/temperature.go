package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/farm-weather/internal/weather"
)

// Default thresholds for extreme temperature detection, in °C.
const (
	DefaultHeatwaveThreshold = 35.0
	DefaultColdSnapThreshold = 5.0
)

// ExtremeKind selects which tail DetectExtremes looks at.
type ExtremeKind string

const (
	// Heat keeps days whose maximum temperature exceeds the threshold.
	Heat ExtremeKind = "heat"
	// Cold keeps days whose minimum temperature is below the threshold.
	Cold ExtremeKind = "cold"
)

// Summary is a descriptive statistics block for one temperature column.
// Std is the sample standard deviation and is zero for fewer than two values.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// TemperatureSummary describes both temperature columns of a series.
type TemperatureSummary struct {
	TemperatureMax Summary `json:"temperatureMax"`
	TemperatureMin Summary `json:"temperatureMin"`
}

// RangeRecord is the spread between the daily maximum and minimum temperature.
type RangeRecord struct {
	Date  time.Time `json:"date"`
	Range float64   `json:"rangeC"`
}

// Describe computes descriptive statistics for the maximum and minimum
// temperatures. Missing values are skipped.
func Describe(series weather.DailySeries) TemperatureSummary {
	var maxs, mins []float64
	for _, r := range series {
		if r.TemperatureMax != nil {
			maxs = append(maxs, *r.TemperatureMax)
		}
		if r.TemperatureMin != nil {
			mins = append(mins, *r.TemperatureMin)
		}
	}
	return TemperatureSummary{
		TemperatureMax: summarize(maxs),
		TemperatureMin: summarize(mins),
	}
}

// DailyRange returns max minus min temperature for every record carrying both.
func DailyRange(series weather.DailySeries) []RangeRecord {
	out := make([]RangeRecord, 0, len(series))
	for _, r := range series {
		if r.TemperatureMax == nil || r.TemperatureMin == nil {
			continue
		}
		out = append(out, RangeRecord{Date: r.Date, Range: *r.TemperatureMax - *r.TemperatureMin})
	}
	return out
}

// DetectExtremes returns the records beyond threshold: Heat compares the
// maximum temperature (strictly above), Cold the minimum (strictly below).
// It panics on any other kind.
func DetectExtremes(series weather.DailySeries, threshold float64, kind ExtremeKind) weather.DailySeries {
	if kind != Heat && kind != Cold {
		panic(fmt.Sprintf("analysis: unknown extreme kind %q", kind))
	}
	out := weather.DailySeries{}
	for _, r := range series {
		switch kind {
		case Heat:
			if r.TemperatureMax != nil && *r.TemperatureMax > threshold {
				out = append(out, r)
			}
		case Cold:
			if r.TemperatureMin != nil && *r.TemperatureMin < threshold {
				out = append(out, r)
			}
		}
	}
	return out.Clone()
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q25:    quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q75:    quantile(sorted, 0.75),
	}
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	return s
}

// quantile interpolates linearly between the closest ranks of sorted,
// placing p at position p*(n-1).
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (pos-lo)*(sorted[i+1]-sorted[i])
}
