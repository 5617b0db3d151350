package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/report"
	"github.com/i474232898/farm-weather/internal/weather"
)

type stubSource struct {
	series weather.DailySeries
	err    error
}

func (s stubSource) FetchDaily(_ context.Context, _ weather.Location, from, to time.Time) (weather.DailySeries, error) {
	if s.err != nil {
		return nil, s.err
	}
	if to.Before(from) {
		return nil, weather.ErrInvalidRange
	}
	return s.series.Clone(), nil
}

type stubPlaces struct{ err error }

func (p stubPlaces) ReverseGeocode(context.Context, float64, float64) (weather.Place, error) {
	if p.err != nil {
		return weather.Place{}, p.err
	}
	return weather.Place{District: "Lisboa", Municipality: "Lisboa", Parish: "Marvila", Label: "Marvila, Lisboa"}, nil
}

func fourDays() weather.DailySeries {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	maxs := []float64{13.5, 14.8, 14.6, 15.6}
	mins := []float64{4.0, 1.9, 3.4, 5.2}
	s := make(weather.DailySeries, 4)
	for i := range s {
		s[i] = weather.DailyRecord{
			Date:           day.AddDate(0, 0, i),
			Precipitation:  weather.Float(float64(i)),
			TemperatureMax: weather.Float(maxs[i]),
			TemperatureMin: weather.Float(mins[i]),
		}
	}
	return s
}

func newTestApp(src report.SeriesSource, places weather.PlaceResolver) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Dependencies{
		Series:  src,
		Builder: report.NewBuilder(src, places, nil, report.DefaultThresholds),
		Places:  places,
	})
	return app
}

func do(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

const query = "?lat=39.3999&lon=-8.2245&from=2025-01-01&to=2025-01-04"

func TestDailyEndpoint(t *testing.T) {
	app := newTestApp(stubSource{series: fourDays()}, nil)

	code, body := do(t, app, "/api/v1/weather/daily"+query)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["series"], 4)
}

func TestValidation(t *testing.T) {
	app := newTestApp(stubSource{series: fourDays()}, nil)

	for _, target := range []string{
		"/api/v1/weather/daily",
		"/api/v1/weather/daily?lat=39&lon=-8&from=2025-01-01",
		"/api/v1/weather/daily?lat=91&lon=-8&from=2025-01-01&to=2025-01-04",
		"/api/v1/weather/daily?lat=39&lon=-181&from=2025-01-01&to=2025-01-04",
		"/api/v1/weather/daily?lat=north&lon=-8&from=2025-01-01&to=2025-01-04",
		"/api/v1/weather/daily?lat=39&lon=-8&from=01-01-2025&to=2025-01-04",
		"/api/v1/analysis/precipitation?lat=39&lon=-8&from=2025-01-05&to=2025-01-04",
		"/api/v1/analysis/temperature" + query + "&heat=hot",
	} {
		code, body := do(t, app, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Equal(t, true, body["error"], target)
		assert.NotEmpty(t, body["message"], target)
	}
}

func TestPrecipitationEndpoint(t *testing.T) {
	app := newTestApp(stubSource{series: fourDays()}, nil)

	code, body := do(t, app, "/api/v1/analysis/precipitation"+query)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3.0, body["spanDays"])
	assert.Equal(t, 3.0, body["window"])
	records := body["records"].([]any)
	require.Len(t, records, 4)
	last := records[3].(map[string]any)
	assert.Equal(t, 2.0, last["rollingAverageMm"])
}

func TestPrecipitationEndpoint_Unprocessable(t *testing.T) {
	series := fourDays()
	for i := range series {
		series[i].Precipitation = nil
	}
	app := newTestApp(stubSource{series: series}, nil)

	code, body := do(t, app, "/api/v1/analysis/precipitation"+query)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, true, body["error"])
}

func TestTemperatureEndpoint(t *testing.T) {
	app := newTestApp(stubSource{series: fourDays()}, nil)

	code, body := do(t, app, "/api/v1/analysis/temperature"+query+"&heat=15&cold=2")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["heatwaves"], 1)
	assert.Len(t, body["coldSnaps"], 1)
	assert.Len(t, body["dailyRange"], 4)
}

func TestSeasonsEndpoint_InsufficientData(t *testing.T) {
	app := newTestApp(stubSource{series: fourDays()[:2]}, nil)

	code, _ := do(t, app, "/api/v1/analysis/seasons"+query)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestNoData(t *testing.T) {
	app := newTestApp(stubSource{err: weather.ErrNoData}, nil)

	code, body := do(t, app, "/api/v1/report"+query)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["message"], "no weather data")
}

func TestReportEndpoint(t *testing.T) {
	app := newTestApp(stubSource{series: fourDays()}, stubPlaces{})

	code, body := do(t, app, "/api/v1/report"+query)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["id"])
	place := body["place"].(map[string]any)
	assert.Equal(t, "Marvila", place["parish"])
	assert.Contains(t, body, "precipitation")
	assert.Contains(t, body, "temperature")
}

func TestReverseEndpoint(t *testing.T) {
	code, body := do(t, newTestApp(stubSource{}, stubPlaces{}), "/api/v1/location/reverse?lat=38.7484&lon=-9.1030")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Lisboa", body["district"])

	code, _ = do(t, newTestApp(stubSource{}, stubPlaces{err: errors.New("down")}), "/api/v1/location/reverse?lat=38.7484&lon=-9.1030")
	assert.Equal(t, http.StatusBadGateway, code)

	code, _ = do(t, newTestApp(stubSource{}, nil), "/api/v1/location/reverse?lat=38.7484&lon=-9.1030")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
