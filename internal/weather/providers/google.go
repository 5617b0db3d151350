package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/farm-weather/internal/weather"
)

// geocoder keeps its API key in a package variable. The lock covers only the
// assignment; a hung lookup must not block later calls.
var googleKeyMu sync.Mutex

// GoogleGeocoder implements weather.AddressGeocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Geocode resolves a free-form address such as "Rua Augusta, Lisboa, Portugal".
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (weather.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return weather.Location{}, errors.New("address is empty")
	}
	if g.apiKey == "" {
		return weather.Location{}, fmt.Errorf("google geocoding api key is not configured")
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		googleKeyMu.Lock()
		geocoder.ApiKey = g.apiKey
		googleKeyMu.Unlock()

		loc, err := g.lookup(geocoder.Address{Street: address})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Location{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return weather.Location{}, fmt.Errorf("geocode %q: %w", address, r.err)
		}
		return weather.Location{
			Latitude:  r.loc.Latitude,
			Longitude: r.loc.Longitude,
			Name:      address,
		}, nil
	}
}
