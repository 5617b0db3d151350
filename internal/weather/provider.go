package weather

import (
	"context"
	"time"
)

// HistoryProvider abstracts a source of historical daily weather (e.g. Open-Meteo, WeatherAPI).
type HistoryProvider interface {
	Name() string
	FetchDaily(ctx context.Context, loc Location, from, to time.Time) (DailySeries, error)
}

// SeriesCache is the contract the in-memory cache (and the Redis cache) must satisfy.
type SeriesCache interface {
	Get(ctx context.Context, key string) (DailySeries, bool, error)
	Set(ctx context.Context, key string, series DailySeries) error
}

// Locator determines the current position of the caller, e.g. from its public IP.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// PlaceResolver converts coordinates to administrative place names.
type PlaceResolver interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}

// AddressGeocoder converts a free-form address to coordinates.
type AddressGeocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}
