package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather/internal/weather"
)

const weatherAPIHistoryURL = "https://api.weatherapi.com/v1/history.json"

// WeatherAPIProvider implements weather.HistoryProvider on WeatherAPI.com's history endpoint.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	o := applyOptions(weatherAPIHistoryURL, opts)
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// FetchDaily requests the forecastday history between from and to (inclusive).
func (p *WeatherAPIProvider) FetchDaily(ctx context.Context, loc weather.Location, from, to time.Time) (weather.DailySeries, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", fmt.Sprintf("%s,%s", coord(loc.Latitude), coord(loc.Longitude)))
		values.Set("dt", from.Format(weather.DateLayout))
		values.Set("end_dt", to.Format(weather.DateLayout))

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC      *float64 `json:"maxtemp_c"`
					MinTempC      *float64 `json:"mintemp_c"`
					TotalPrecipMm *float64 `json:"totalprecip_mm"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("weatherapi: decode response: %w", err)
	}

	out := make(weather.DailySeries, 0, len(payload.Forecast.ForecastDay))
	for _, fd := range payload.Forecast.ForecastDay {
		date, err := time.Parse(weather.DateLayout, fd.Date)
		if err != nil {
			return nil, fmt.Errorf("weatherapi: bad date %q: %w", fd.Date, err)
		}
		out = append(out, weather.DailyRecord{
			Date:           date,
			Precipitation:  fd.Day.TotalPrecipMm,
			TemperatureMax: fd.Day.MaxTempC,
			TemperatureMin: fd.Day.MinTempC,
		})
	}
	return out, nil
}
