package analysis

import (
	"fmt"
	"time"

	"github.com/i474232898/farm-weather/internal/weather"
)

// Extremum is a local peak or valley in the maximum temperature signal.
type Extremum struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"temperatureC"`
}

// Transition marks the day the maximum temperature crossed the seasonal midpoint.
type Transition struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"temperatureC"`
	Warming     bool      `json:"warming"`
}

// SeasonResult is the outcome of DetectSeasons.
type SeasonResult struct {
	Peaks       []Extremum   `json:"peaks"`
	Valleys     []Extremum   `json:"valleys"`
	Midpoint    float64      `json:"midpointC"`
	Transitions []Transition `json:"transitions"`
}

// DetectSeasons estimates summer/winter switches from the maximum temperature.
// The midpoint sits halfway between the highest peak and the lowest valley;
// every crossing of it is reported as a transition.
func DetectSeasons(series weather.DailySeries) (SeasonResult, error) {
	temps := make([]float64, len(series))
	for i, r := range series {
		if r.TemperatureMax == nil {
			return SeasonResult{}, fmt.Errorf("%w: missing maximum temperature on %s",
				ErrInsufficientData, r.Date.Format(weather.DateLayout))
		}
		temps[i] = *r.TemperatureMax
	}

	peakIdx := FindPeaks(temps)
	negated := make([]float64, len(temps))
	for i, t := range temps {
		negated[i] = -t
	}
	valleyIdx := FindPeaks(negated)

	if len(peakIdx) == 0 || len(valleyIdx) == 0 {
		return SeasonResult{}, fmt.Errorf("%w: need at least one peak and one valley", ErrInsufficientData)
	}

	res := SeasonResult{
		Peaks:   extrema(series, temps, peakIdx),
		Valleys: extrema(series, temps, valleyIdx),
	}

	highest := temps[peakIdx[0]]
	for _, i := range peakIdx {
		if temps[i] > highest {
			highest = temps[i]
		}
	}
	lowest := temps[valleyIdx[0]]
	for _, i := range valleyIdx {
		if temps[i] < lowest {
			lowest = temps[i]
		}
	}
	res.Midpoint = (highest + lowest) / 2

	res.Transitions = []Transition{}
	for i := 1; i < len(temps); i++ {
		above := temps[i] >= res.Midpoint
		if above != (temps[i-1] >= res.Midpoint) {
			res.Transitions = append(res.Transitions, Transition{
				Date:        series[i].Date,
				Temperature: temps[i],
				Warming:     above,
			})
		}
	}
	return res, nil
}

// FindPeaks returns the indices of local maxima. A sample is a peak when it is
// strictly greater than both neighbours; a flat top counts once, at its middle
// (rounded down). The first and last samples are never peaks.
func FindPeaks(x []float64) []int {
	peaks := []int{}
	i := 1
	last := len(x) - 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return peaks
}

func extrema(series weather.DailySeries, temps []float64, idx []int) []Extremum {
	out := make([]Extremum, len(idx))
	for n, i := range idx {
		out[n] = Extremum{Date: series[i].Date, Temperature: temps[i]}
	}
	return out
}
