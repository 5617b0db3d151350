package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/observability"
	"github.com/i474232898/farm-weather/internal/weather"
)

type call struct {
	loc      weather.Location
	from, to time.Time
}

type recordingSource struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingSource) FetchDaily(_ context.Context, loc weather.Location, from, to time.Time) (weather.DailySeries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{loc: loc, from: from, to: to})
	if loc.Name == "broken" {
		return nil, errors.New("upstream down")
	}
	return weather.DailySeries{}, nil
}

func TestWarm(t *testing.T) {
	src := &recordingSource{}
	metrics := observability.NewMetricsForTesting()
	locs := []weather.Location{
		{Latitude: 38.72, Longitude: -9.14},
		{Latitude: 41.15, Longitude: -8.61, Name: "broken"},
	}

	s := New(locs, time.Hour, 7, src, metrics)
	s.clock = clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC))
	s.Warm()

	require.Len(t, src.calls, 2)
	for _, c := range src.calls {
		assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), c.from)
		assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), c.to)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WarmRuns))
}

func TestStart(t *testing.T) {
	empty := New(nil, time.Hour, 7, &recordingSource{}, nil)
	require.NoError(t, empty.Start())
	assert.Equal(t, 0, empty.scheduler.Len())
	empty.Stop()

	s := New([]weather.Location{{Latitude: 1, Longitude: 1}}, time.Hour, 7, &recordingSource{}, nil)
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Equal(t, 1, s.scheduler.Len())
	assert.True(t, s.scheduler.IsRunning())
}
