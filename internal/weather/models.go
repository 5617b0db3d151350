package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned when a requested date range ends before it starts.
	ErrInvalidRange = errors.New("end date must not be earlier than start date")

	// ErrNoData is returned when no provider produced any daily records.
	ErrNoData = errors.New("no weather data available")

	// ErrLocationUnavailable is returned when the current position cannot be determined.
	ErrLocationUnavailable = errors.New("unable to retrieve GPS coordinates")
)

// DateLayout is the calendar date format used by the upstream APIs, CSV files and query parameters.
const DateLayout = "2006-01-02"

// Location represents the farm position for which we analyse weather.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Name      string  `json:"name,omitempty"`
}

// Key returns a canonical string key for indexing this location in caches.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// DailyRecord is one row of date-stamped weather observations.
// Nil pointers mark values the upstream did not report.
type DailyRecord struct {
	Date           time.Time `json:"date"` // always UTC midnight
	Precipitation  *float64  `json:"precipitationMm"`
	TemperatureMax *float64  `json:"temperatureMaxC,omitempty"`
	TemperatureMin *float64  `json:"temperatureMinC,omitempty"`
}

// DailySeries is an ordered sequence of daily records. Dates need not be contiguous.
type DailySeries []DailyRecord

// Clone returns a deep copy of the series so callers can modify it freely.
func (s DailySeries) Clone() DailySeries {
	if s == nil {
		return nil
	}
	out := make(DailySeries, len(s))
	for i, r := range s {
		out[i] = DailyRecord{
			Date:           r.Date,
			Precipitation:  copyFloat(r.Precipitation),
			TemperatureMax: copyFloat(r.TemperatureMax),
			TemperatureMin: copyFloat(r.TemperatureMin),
		}
	}
	return out
}

// Place is the administrative area a coordinate falls into.
type Place struct {
	District     string `json:"district,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Parish       string `json:"parish,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Float returns a pointer to v. Handy for building fixtures and decoded records.
func Float(v float64) *float64 {
	return &v
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
