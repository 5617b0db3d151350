// Package report runs every analysis over one location and date range.
package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/farm-weather/internal/analysis"
	"github.com/i474232898/farm-weather/internal/observability"
	"github.com/i474232898/farm-weather/internal/weather"
)

// SeriesSource supplies daily series; *weather.Service implements it.
type SeriesSource interface {
	FetchDaily(ctx context.Context, loc weather.Location, from, to time.Time) (weather.DailySeries, error)
}

// PrecipitationSection is the adaptive rolling summary plus quick stats.
type PrecipitationSection struct {
	SpanDays   int                       `json:"spanDays"`
	Window     int                       `json:"window"`
	Records    analysis.SummarizedSeries `json:"records"`
	QuickStats analysis.QuickStatsResult `json:"quickStats"`
	Skipped    int                       `json:"skippedDays,omitempty"`
}

// TemperatureSection groups the temperature analyses.
type TemperatureSection struct {
	Describe   analysis.TemperatureSummary `json:"describe"`
	DailyRange []analysis.RangeRecord      `json:"dailyRange"`
	Heatwaves  weather.DailySeries         `json:"heatwaves"`
	ColdSnaps  weather.DailySeries         `json:"coldSnaps"`
}

// Report is the outcome of one full analysis run.
type Report struct {
	ID            string                 `json:"id"`
	Location      weather.Location       `json:"location"`
	Place         *weather.Place         `json:"place,omitempty"`
	From          time.Time              `json:"from"`
	To            time.Time              `json:"to"`
	Series        weather.DailySeries    `json:"series"`
	Precipitation PrecipitationSection   `json:"precipitation"`
	Temperature   TemperatureSection     `json:"temperature"`
	Seasons       *analysis.SeasonResult `json:"seasons,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
}

// Thresholds for extreme temperature detection.
type Thresholds struct {
	Heat float64
	Cold float64
}

// DefaultThresholds are 35 °C for heatwaves and 5 °C for cold snaps.
var DefaultThresholds = Thresholds{
	Heat: analysis.DefaultHeatwaveThreshold,
	Cold: analysis.DefaultColdSnapThreshold,
}

// Builder assembles reports. places and metrics may be nil.
type Builder struct {
	series     SeriesSource
	places     weather.PlaceResolver
	metrics    *observability.Metrics
	thresholds Thresholds
	newID      func() string
}

func NewBuilder(series SeriesSource, places weather.PlaceResolver, metrics *observability.Metrics, thresholds Thresholds) *Builder {
	return &Builder{
		series:     series,
		places:     places,
		metrics:    metrics,
		thresholds: thresholds,
		newID:      uuid.NewString,
	}
}

// Thresholds returns the configured extreme temperature thresholds.
func (b *Builder) Thresholds() Thresholds {
	return b.thresholds
}

// Build fetches the series and the place name concurrently, then runs every
// analysis. A failed reverse geocode or an undetectable season is reported as
// a warning; a failed fetch or unusable precipitation data fails the build.
func (b *Builder) Build(ctx context.Context, loc weather.Location, from, to time.Time) (*Report, error) {
	var (
		series weather.DailySeries
		place  *weather.Place
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := b.series.FetchDaily(gctx, loc, from, to)
		if err != nil {
			return err
		}
		series = s
		return nil
	})
	var placeErr error
	if b.places != nil {
		g.Go(func() error {
			p, err := b.places.ReverseGeocode(gctx, loc.Latitude, loc.Longitude)
			if err != nil {
				placeErr = err
				return nil
			}
			place = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		ID:       b.newID(),
		Location: loc,
		Place:    place,
		From:     weather.Day(from),
		To:       weather.Day(to),
		Series:   series,
	}
	if placeErr != nil {
		log.Printf("ERROR: reverse geocode failed for %s: %v", loc.Key(), placeErr)
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("place lookup failed: %v", placeErr))
	}

	precip, err := b.Precipitation(series)
	if err != nil {
		return nil, err
	}
	rep.Precipitation = precip
	if precip.Skipped > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d days without precipitation data were left out of the summary", precip.Skipped))
	}

	rep.Temperature = b.Temperature(series, b.thresholds)

	seasons, err := b.Seasons(series)
	switch {
	case err == nil:
		rep.Seasons = &seasons
	case errors.Is(err, analysis.ErrInsufficientData):
		rep.Warnings = append(rep.Warnings, err.Error())
	default:
		return nil, err
	}

	log.Printf("INFO: report %s built for %s (%d days, %d warnings)", rep.ID, loc.Key(), len(series), len(rep.Warnings))
	return rep, nil
}

// Precipitation summarizes the days that carry a precipitation value.
// Days without one are counted in Skipped.
func (b *Builder) Precipitation(series weather.DailySeries) (PrecipitationSection, error) {
	usable := make(weather.DailySeries, 0, len(series))
	for _, r := range series {
		if r.Precipitation != nil {
			usable = append(usable, r)
		}
	}

	span, err := analysis.SpanDays(usable)
	if err != nil {
		b.count("precipitation", err)
		return PrecipitationSection{}, err
	}
	window := analysis.WindowFor(span)
	log.Printf("DEBUG: Date range is %d days, rolling window is %d", span, window)

	records, err := analysis.SummarizePrecipitation(usable)
	if err != nil {
		b.count("precipitation", err)
		return PrecipitationSection{}, err
	}
	stats, err := analysis.QuickStats(usable)
	b.count("precipitation", err)
	if err != nil {
		return PrecipitationSection{}, err
	}

	return PrecipitationSection{
		SpanDays:   span,
		Window:     window,
		Records:    records,
		QuickStats: stats,
		Skipped:    len(series) - len(usable),
	}, nil
}

// Temperature runs the descriptive, range and extreme temperature analyses.
func (b *Builder) Temperature(series weather.DailySeries, t Thresholds) TemperatureSection {
	b.count("temperature", nil)
	return TemperatureSection{
		Describe:   analysis.Describe(series),
		DailyRange: analysis.DailyRange(series),
		Heatwaves:  analysis.DetectExtremes(series, t.Heat, analysis.Heat),
		ColdSnaps:  analysis.DetectExtremes(series, t.Cold, analysis.Cold),
	}
}

// Seasons detects growing-season transitions.
func (b *Builder) Seasons(series weather.DailySeries) (analysis.SeasonResult, error) {
	res, err := analysis.DetectSeasons(series)
	b.count("seasons", err)
	return res, err
}

func (b *Builder) count(kind string, err error) {
	if b.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	b.metrics.Analyses.WithLabelValues(kind, outcome).Inc()
}
