package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather/internal/weather"
)

const geoAPIURL = "https://json.geoapi.pt/gps"

// GeoAPIResolver implements weather.PlaceResolver on geoapi.pt, which covers Portugal.
type GeoAPIResolver struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewGeoAPIResolver(client *http.Client, opts ...Option) *GeoAPIResolver {
	o := applyOptions(geoAPIURL, opts)
	return &GeoAPIResolver{
		baseURL: strings.TrimRight(o.baseURL, "/"),
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newBreaker("geoapi"),
	}
}

// ReverseGeocode returns the distrito, concelho and freguesia for a coordinate.
func (r *GeoAPIResolver) ReverseGeocode(ctx context.Context, lat, lon float64) (weather.Place, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s,%s", r.baseURL, coord(lat), coord(lon)), nil)
	}

	resp, err := doRequestWithResilience(ctx, r.httpCfg, r.circuit, buildRequest)
	if err != nil {
		return weather.Place{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Distrito  string `json:"distrito"`
		Concelho  string `json:"concelho"`
		Freguesia string `json:"freguesia"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Place{}, fmt.Errorf("geoapi: decode response: %w", err)
	}

	place := weather.Place{
		District:     payload.Distrito,
		Municipality: payload.Concelho,
		Parish:       payload.Freguesia,
	}
	place.Label = placeLabel(place)
	return place, nil
}

func placeLabel(p weather.Place) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Parish, p.Municipality, p.District} {
		if s != "" && (len(parts) == 0 || parts[len(parts)-1] != s) {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
