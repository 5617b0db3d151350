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

const openMeteoArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

// OpenMeteoProvider implements weather.HistoryProvider on the Open-Meteo archive API.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, opts ...Option) *OpenMeteoProvider {
	o := applyOptions(openMeteoArchiveURL, opts)
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: o.backoff},
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoDaily struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}

// FetchDaily requests daily max/min temperature and precipitation sums for the
// inclusive date range. Nulls in the response become missing values.
func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, loc weather.Location, from, to time.Time) (weather.DailySeries, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", coord(loc.Latitude))
		values.Set("longitude", coord(loc.Longitude))
		values.Set("start_date", from.Format(weather.DateLayout))
		values.Set("end_date", to.Format(weather.DateLayout))
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
		values.Set("timezone", "auto")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily openMeteoDaily `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openmeteo: decode response: %w", err)
	}

	return payload.Daily.series()
}

func (d openMeteoDaily) series() (weather.DailySeries, error) {
	n := len(d.Time)
	if len(d.TemperatureMax) != n || len(d.TemperatureMin) != n || len(d.PrecipitationSum) != n {
		return nil, fmt.Errorf("openmeteo: daily arrays have mismatched lengths")
	}

	out := make(weather.DailySeries, 0, n)
	for i, s := range d.Time {
		date, err := time.Parse(weather.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("openmeteo: bad date %q: %w", s, err)
		}
		out = append(out, weather.DailyRecord{
			Date:           date,
			Precipitation:  d.PrecipitationSum[i],
			TemperatureMax: d.TemperatureMax[i],
			TemperatureMin: d.TemperatureMin[i],
		})
	}
	return out, nil
}
