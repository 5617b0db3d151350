package common

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/weather"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-01-04 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"", "04-01-2025", "2025/01/04", "2025-02-30"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestTrailingRange(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC))

	from, to := TrailingRange(clock, 7)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), from)

	from, to = TrailingRange(clock, 0)
	assert.Equal(t, from, to)
}

func TestParseLocations(t *testing.T) {
	locs, err := ParseLocations("38.72,-9.14,Lisboa; 39.3999,-8.2245 ;")
	require.NoError(t, err)
	assert.Equal(t, []weather.Location{
		{Latitude: 38.72, Longitude: -9.14, Name: "Lisboa"},
		{Latitude: 39.3999, Longitude: -8.2245},
	}, locs)

	locs, err = ParseLocations("")
	require.NoError(t, err)
	assert.Empty(t, locs)

	_, err = ParseLocations("38.72")
	assert.Error(t, err)
	_, err = ParseLocations("north,-9")
	assert.Error(t, err)
}
