package analysis

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/weather"
)

var day0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func dailySeries(precip []float64, withTemps bool) weather.DailySeries {
	s := make(weather.DailySeries, len(precip))
	for i, p := range precip {
		s[i] = weather.DailyRecord{
			Date:          day0.AddDate(0, 0, i),
			Precipitation: weather.Float(p),
		}
		if withTemps {
			s[i].TemperatureMax = weather.Float(30 - float64(i))
			s[i].TemperatureMin = weather.Float(15 - float64(i))
		}
	}
	return s
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestWindowFor(t *testing.T) {
	tests := []struct {
		span int
		want int
	}{
		{0, 3},
		{9, 3},
		{14, 3},
		{15, 7},
		{44, 7},
		{60, 7},
		{61, 30},
		{99, 30},
		{3650, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WindowFor(tt.span), "span %d", tt.span)
	}
}

func TestSpanDays(t *testing.T) {
	t.Run("unordered with gaps", func(t *testing.T) {
		s := weather.DailySeries{
			{Date: day0.AddDate(0, 0, 20), Precipitation: weather.Float(0)},
			{Date: day0, Precipitation: weather.Float(0)},
			{Date: day0.AddDate(0, 0, 3), Precipitation: weather.Float(0)},
		}
		span, err := SpanDays(s)
		require.NoError(t, err)
		assert.Equal(t, 20, span)
	})

	t.Run("time of day ignored", func(t *testing.T) {
		s := weather.DailySeries{
			{Date: day0.Add(23 * time.Hour)},
			{Date: day0.AddDate(0, 0, 1).Add(time.Hour)},
		}
		span, err := SpanDays(s)
		require.NoError(t, err)
		assert.Equal(t, 1, span)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := SpanDays(nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestSummarizePrecipitation(t *testing.T) {
	t.Run("ten days uses window 3", func(t *testing.T) {
		in := dailySeries([]float64{1.0, 2.0, 0.5, 1.2, 3.4, 2.1, 0.7, 1.5, 2.8, 3.0}, true)

		out, err := SummarizePrecipitation(in)
		require.NoError(t, err)
		require.Len(t, out, len(in))

		assert.InDelta(t, 1.0, out[0].RollingAverage, 1e-12)
		assert.InDelta(t, 1.5, out[1].RollingAverage, 1e-12)
		assert.InDelta(t, (1.0+2.0+0.5)/3, out[2].RollingAverage, 1e-12)
		assert.InDelta(t, (2.0+0.5+1.2)/3, out[3].RollingAverage, 1e-12)
		assert.InDelta(t, (1.5+2.8+3.0)/3, out[9].RollingAverage, 1e-12)

		for i := range in {
			assert.Equal(t, in[i].Date, out[i].Date)
			assert.Equal(t, *in[i].Precipitation, out[i].Precipitation)
		}
	})

	t.Run("forty five days uses window 7", func(t *testing.T) {
		in := dailySeries(constant(45, 1.0), true)

		out, err := SummarizePrecipitation(in)
		require.NoError(t, err)
		require.Len(t, out, 45)
		assert.InDelta(t, 1.0, out[6].RollingAverage, 1e-12)
		assert.InDelta(t, 1.0, out[44].RollingAverage, 1e-12)
	})

	t.Run("window 7 averages the trailing seven values", func(t *testing.T) {
		vals := make([]float64, 20)
		for i := range vals {
			vals[i] = float64(i)
		}
		out, err := SummarizePrecipitation(dailySeries(vals, false))
		require.NoError(t, err)
		// span is 19 days, window 7: mean of 3..9
		assert.InDelta(t, 6.0, out[9].RollingAverage, 1e-12)
	})

	t.Run("hundred days uses window 30", func(t *testing.T) {
		in := dailySeries(constant(100, 0.5), true)

		out, err := SummarizePrecipitation(in)
		require.NoError(t, err)
		require.Len(t, out, 100)
		assert.InDelta(t, 0.5, out[29].RollingAverage, 1e-12)
		assert.InDelta(t, 0.5, out[99].RollingAverage, 1e-12)
	})

	t.Run("single record", func(t *testing.T) {
		in := weather.DailySeries{{Date: day0, Precipitation: weather.Float(4.2)}}

		out, err := SummarizePrecipitation(in)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, 4.2, out[0].RollingAverage)
	})

	t.Run("window follows span not length", func(t *testing.T) {
		// Two records 90 days apart: window 30, but only two values exist.
		in := weather.DailySeries{
			{Date: day0, Precipitation: weather.Float(2)},
			{Date: day0.AddDate(0, 0, 90), Precipitation: weather.Float(4)},
		}
		out, err := SummarizePrecipitation(in)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, out[1].RollingAverage, 1e-12)
	})

	t.Run("works without temperatures", func(t *testing.T) {
		out, err := SummarizePrecipitation(dailySeries([]float64{1, 2}, false))
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		in := dailySeries([]float64{1, 2, 3}, true)
		before := in.Clone()
		_, err := SummarizePrecipitation(in)
		require.NoError(t, err)
		assert.Equal(t, before, in)
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := SummarizePrecipitation(weather.DailySeries{})
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, out)
	})

	t.Run("missing precipitation", func(t *testing.T) {
		in := dailySeries([]float64{1, 2, 3}, false)
		in[1].Precipitation = nil
		_, err := SummarizePrecipitation(in)
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "2023-01-02")
	})

	t.Run("NaN precipitation", func(t *testing.T) {
		in := dailySeries([]float64{1, math.NaN()}, false)
		_, err := SummarizePrecipitation(in)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestSummarizePrecipitation_DrySpell(t *testing.T) {
	in := dailySeries([]float64{0.1, 0.2, 0.3, 0, 0, 0, 0.7, 0.1, 0.3, 0, 0, 0}, false)

	out, err := SummarizePrecipitation(in)
	require.NoError(t, err)
	require.Len(t, out, 12)

	assert.Equal(t, 0.0, out[5].RollingAverage)
	assert.Equal(t, 0.0, out[11].RollingAverage)
	assert.InDelta(t, 0.1/3, out[3].RollingAverage, 1e-12)
	for _, r := range out {
		assert.GreaterOrEqual(t, r.RollingAverage, 0.0)
	}
}

func TestQuickStats(t *testing.T) {
	in := dailySeries([]float64{0.0, 5.5, 1.0, 5.5, 0.0}, false)

	stats, err := QuickStats(in)
	require.NoError(t, err)
	assert.Equal(t, 5.5, stats.MaxPrecipitation)
	assert.Equal(t, 0.0, stats.MinPrecipitation)
	assert.Equal(t, day0.AddDate(0, 0, 1), stats.DayMostRain)
	assert.Equal(t, day0, stats.DayLeastRain)

	_, err = QuickStats(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestWriteSummaryCSV(t *testing.T) {
	out, err := SummarizePrecipitation(dailySeries([]float64{1, 2}, true))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, out))
	assert.Equal(t, "Date,Precipitation,RollingAverage\n2023-01-01,1,1\n2023-01-02,2,1.5\n", buf.String())
	assert.NotContains(t, buf.String(), "Temperature")
}
