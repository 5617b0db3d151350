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

const ipAPIURL = "http://ip-api.com/json/"

// IPLocator implements weather.Locator using ip-api.com, which geolocates the
// caller's public IP address.
type IPLocator struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewIPLocator(client *http.Client, opts ...Option) *IPLocator {
	o := applyOptions(ipAPIURL, opts)
	return &IPLocator{
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newBreaker("ipapi"),
	}
}

// Locate returns the approximate position of the current host.
func (l *IPLocator) Locate(ctx context.Context) (weather.Location, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, l.baseURL+"?fields=status,message,lat,lon,city", nil)
	}

	resp, err := doRequestWithResilience(ctx, l.httpCfg, l.circuit, buildRequest)
	if err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", weather.ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		City    string  `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Location{}, fmt.Errorf("%w: decode response: %v", weather.ErrLocationUnavailable, err)
	}
	if !strings.EqualFold(payload.Status, "success") {
		return weather.Location{}, fmt.Errorf("%w: %s", weather.ErrLocationUnavailable, payload.Message)
	}

	return weather.Location{
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		Name:      payload.City,
	}, nil
}
