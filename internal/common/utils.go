package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/farm-weather/internal/weather"
)

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(weather.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Today returns the current calendar day in UTC according to clock.
func Today(clock clockwork.Clock) time.Time {
	return weather.Day(clock.Now())
}

// TrailingRange returns the inclusive range of the last days calendar days
// ending yesterday. The archive API lags behind the current day.
func TrailingRange(clock clockwork.Clock, days int) (from, to time.Time) {
	to = Today(clock).AddDate(0, 0, -1)
	if days < 1 {
		days = 1
	}
	return to.AddDate(0, 0, -(days - 1)), to
}

// ParseLocations parses "lat,lon[;lat,lon...]" into locations.
// An optional name may follow the coordinates: "38.72,-9.14,Lisboa".
func ParseLocations(s string) ([]weather.Location, error) {
	var locs []weather.Location
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ",", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("invalid location %q, expected lat,lon", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", part, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", part, err)
		}
		loc := weather.Location{Latitude: lat, Longitude: lon}
		if len(fields) == 3 {
			loc.Name = strings.TrimSpace(fields[2])
		}
		locs = append(locs, loc)
	}
	return locs, nil
}
