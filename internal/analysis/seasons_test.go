package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/weather"
)

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []int
	}{
		{"empty", nil, []int{}},
		{"too short", []float64{1, 2}, []int{}},
		{"single peak", []float64{1, 3, 2}, []int{1}},
		{"edges ignored", []float64{5, 1, 5}, []int{}},
		{"two peaks", []float64{0, 2, 1, 3, 0}, []int{1, 3}},
		{"plateau odd", []float64{0, 2, 2, 2, 0}, []int{2}},
		{"plateau even", []float64{0, 2, 2, 0}, []int{1}},
		{"plateau into edge", []float64{0, 2, 2}, []int{}},
		{"rising shoulder", []float64{0, 2, 2, 3, 0}, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindPeaks(tt.in))
		})
	}
}

func TestDetectSeasons(t *testing.T) {
	// Two years of a yearly cycle between 5 °C and 25 °C, starting mid-winter.
	n := 730
	maxs := make([]float64, n)
	mins := make([]float64, n)
	for i := range maxs {
		maxs[i] = 15 - 10*math.Cos(2*math.Pi*float64(i)/365)
		mins[i] = maxs[i] - 8
	}
	s := tempSeries(maxs, mins)

	res, err := DetectSeasons(s)
	require.NoError(t, err)

	require.NotEmpty(t, res.Peaks)
	require.NotEmpty(t, res.Valleys)
	assert.InDelta(t, 15.0, res.Midpoint, 0.01)

	// warming around day 91 and 456, cooling around day 274 and 639
	require.Len(t, res.Transitions, 4)
	assert.True(t, res.Transitions[0].Warming)
	assert.False(t, res.Transitions[1].Warming)
	assert.InDelta(t, 91, res.Transitions[0].Date.Sub(day0).Hours()/24, 2)
	assert.InDelta(t, 274, res.Transitions[1].Date.Sub(day0).Hours()/24, 2)
}

func TestDetectSeasons_InsufficientData(t *testing.T) {
	rising := tempSeries([]float64{1, 2, 3, 4}, []float64{0, 0, 0, 0})
	_, err := DetectSeasons(rising)
	require.ErrorIs(t, err, ErrInsufficientData)

	missing := tempSeries([]float64{1, 3, 1, 0, 1}, []float64{0, 0, 0, 0, 0})
	missing[2].TemperatureMax = nil
	_, err = DetectSeasons(missing)
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = DetectSeasons(weather.DailySeries{})
	require.ErrorIs(t, err, ErrInsufficientData)
}
