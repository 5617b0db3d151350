package httpapi

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/farm-weather/internal/analysis"
	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/report"
	"github.com/i474232898/farm-weather/internal/weather"
)

var validate = validator.New()

// Dependencies are the collaborators the handlers need. Places may be nil.
type Dependencies struct {
	Series  report.SeriesSource
	Builder *report.Builder
	Places  weather.PlaceResolver
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/daily", func(c *fiber.Ctx) error {
		req, series, err := fetchRange(c, deps.Series)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"location": req.location(),
			"from":     req.From,
			"to":       req.To,
			"series":   series,
		})
	})

	v1.Get("/analysis/precipitation", func(c *fiber.Ctx) error {
		_, series, err := fetchRange(c, deps.Series)
		if err != nil {
			return err
		}
		section, err := deps.Builder.Precipitation(series)
		if err != nil {
			return err
		}
		return c.JSON(section)
	})

	v1.Get("/analysis/temperature", func(c *fiber.Ctx) error {
		thresholds, err := parseThresholds(c, deps.Builder.Thresholds())
		if err != nil {
			return err
		}
		_, series, err := fetchRange(c, deps.Series)
		if err != nil {
			return err
		}
		return c.JSON(deps.Builder.Temperature(series, thresholds))
	})

	v1.Get("/analysis/seasons", func(c *fiber.Ctx) error {
		_, series, err := fetchRange(c, deps.Series)
		if err != nil {
			return err
		}
		res, err := deps.Builder.Seasons(series)
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	v1.Get("/report", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return err
		}
		rep, err := deps.Builder.Build(c.UserContext(), req.location(), req.From, req.To)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	})

	v1.Get("/location/reverse", func(c *fiber.Ctx) error {
		if deps.Places == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "reverse geocoding is not configured")
		}
		var q pointQuery
		if err := q.bind(c); err != nil {
			return err
		}
		place, err := deps.Places.ReverseGeocode(c.UserContext(), *q.Lat, *q.Lon)
		if err != nil {
			log.Printf("ERROR: reverse geocode %f,%f: %v", *q.Lat, *q.Lon, err)
			return fiber.NewError(fiber.StatusBadGateway, "reverse geocoding failed")
		}
		return c.JSON(place)
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...} with a
// status derived from the error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, weather.ErrInvalidRange):
		code = fiber.StatusBadRequest
	case errors.Is(err, analysis.ErrInvalidInput), errors.Is(err, analysis.ErrInsufficientData):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, weather.ErrNoData):
		code = fiber.StatusNotFound
	default:
		log.Printf("ERROR: %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func fetchRange(c *fiber.Ctx, source report.SeriesSource) (rangeQuery, weather.DailySeries, error) {
	var req rangeQuery
	if err := req.bind(c); err != nil {
		return req, nil, err
	}
	series, err := source.FetchDaily(c.UserContext(), req.location(), req.From, req.To)
	if err != nil {
		return req, nil, err
	}
	return req, series, nil
}

// pointQuery holds the coordinate query parameters.
type pointQuery struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lon *float64 `validate:"required,gte=-180,lte=180"`
}

func (p *pointQuery) bind(c *fiber.Ctx) error {
	var err error
	if p.Lat, err = queryFloat(c, "lat"); err != nil {
		return err
	}
	if p.Lon, err = queryFloat(c, "lon"); err != nil {
		return err
	}
	if err := validate.Struct(p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// rangeQuery holds query parameters for the series and analysis endpoints.
type rangeQuery struct {
	pointQuery
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (r *rangeQuery) bind(c *fiber.Ctx) error {
	if err := r.pointQuery.bind(c); err != nil {
		return err
	}

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}
	from, err := common.ParseDate(fromStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	to, err := common.ParseDate(toStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	r.From, r.To = from, to

	if err := validate.Struct(r); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func (r rangeQuery) location() weather.Location {
	return weather.Location{Latitude: *r.Lat, Longitude: *r.Lon}
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be a number", key))
	}
	return &v, nil
}

func parseThresholds(c *fiber.Ctx, def report.Thresholds) (report.Thresholds, error) {
	t := def
	if v, err := queryFloat(c, "heat"); err != nil {
		return t, err
	} else if v != nil {
		t.Heat = *v
	}
	if v, err := queryFloat(c, "cold"); err != nil {
		return t, err
	} else if v != nil {
		t.Cold = *v
	}
	return t, nil
}
