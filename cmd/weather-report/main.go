// Command weather-report prints a precipitation and temperature report for a
// farm location, optionally exporting the data as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/i474232898/farm-weather/internal/analysis"
	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/config"
	"github.com/i474232898/farm-weather/internal/farminput"
	"github.com/i474232898/farm-weather/internal/report"
	"github.com/i474232898/farm-weather/internal/store"
	"github.com/i474232898/farm-weather/internal/weather"
	"github.com/i474232898/farm-weather/internal/weather/providers"
)

type options struct {
	lat, lon    float64
	start, end  string
	locate      bool
	address     string
	input       string
	exportDir   string
	interactive bool
}

func main() {
	var opts options
	flag.Float64Var(&opts.lat, "lat", 0, "farm latitude")
	flag.Float64Var(&opts.lon, "lon", 0, "farm longitude")
	flag.StringVar(&opts.start, "start", "", "start date (YYYY-MM-DD)")
	flag.StringVar(&opts.end, "end", "", "end date (YYYY-MM-DD)")
	flag.BoolVar(&opts.locate, "locate", false, "use the current position from IP geolocation")
	flag.StringVar(&opts.address, "address", "", "geocode this address instead of -lat/-lon")
	flag.StringVar(&opts.input, "input", "", "analyse a local CSV instead of fetching")
	flag.StringVar(&opts.exportDir, "export", "", "write weather_data.csv and precipitation_summary.csv into this directory")
	flag.BoolVar(&opts.interactive, "interactive", false, "prompt for location and dates")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := run(context.Background(), cfg, opts, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, opts options, in io.Reader, out io.Writer) error {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backoff := providers.WithBackoff(providers.BackoffConfig{
		MaxRetries:      cfg.RetryMax,
		InitialInterval: cfg.RetryInitial,
		MaxInterval:     cfg.RetryMaxInterval,
	})

	loc, from, to, err := resolveInputs(ctx, cfg, opts, httpClient, backoff, in, out)
	if err != nil {
		return err
	}

	var (
		source report.SeriesSource
		places weather.PlaceResolver
	)
	if opts.input != "" {
		source, err = csvSource(opts.input)
		if err != nil {
			return err
		}
	} else {
		places = providers.NewGeoAPIResolver(httpClient, backoff)
		provs := []weather.HistoryProvider{providers.NewOpenMeteoProvider(httpClient, backoff)}
		if cfg.WeatherAPIKey != "" {
			provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, backoff))
		}
		source = weather.NewService(store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheTTL), provs, nil)
	}

	builder := report.NewBuilder(source, places, nil, report.Thresholds{
		Heat: cfg.HeatwaveThreshold,
		Cold: cfg.ColdSnapThreshold,
	})
	rep, err := builder.Build(ctx, loc, from, to)
	if err != nil {
		return err
	}

	printReport(out, rep)

	if opts.exportDir != "" {
		return export(opts.exportDir, rep, out)
	}
	return nil
}

func resolveInputs(ctx context.Context, cfg *config.AppConfig, opts options, client *http.Client, backoff providers.Option, in io.Reader, out io.Writer) (weather.Location, time.Time, time.Time, error) {
	var located *weather.Location
	switch {
	case opts.locate:
		l, err := providers.NewIPLocator(client, backoff).Locate(ctx)
		if err != nil {
			return weather.Location{}, time.Time{}, time.Time{}, err
		}
		fmt.Fprintf(out, "Current location: %.4f, %.4f\n", l.Latitude, l.Longitude)
		located = &l
	case opts.address != "":
		l, err := providers.NewGoogleGeocoder(cfg.GoogleGeocodingAPIKey).Geocode(ctx, opts.address)
		if err != nil {
			return weather.Location{}, time.Time{}, time.Time{}, err
		}
		located = &l
	}

	if opts.interactive {
		fi, err := farminput.Collect(in, out, farminput.Options{Location: located})
		if err != nil {
			return weather.Location{}, time.Time{}, time.Time{}, err
		}
		return fi.Location, fi.Start, fi.End, nil
	}

	loc := weather.Location{Latitude: opts.lat, Longitude: opts.lon}
	if located != nil {
		loc = *located
	}
	from, err := common.ParseDate(opts.start)
	if err != nil {
		return weather.Location{}, time.Time{}, time.Time{}, err
	}
	to, err := common.ParseDate(opts.end)
	if err != nil {
		return weather.Location{}, time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return weather.Location{}, time.Time{}, time.Time{}, weather.ErrInvalidRange
	}
	return loc, from, to, nil
}

// fileSource serves a series read from disk, restricted to the requested range.
type fileSource struct {
	series weather.DailySeries
}

func csvSource(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	series, err := weather.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &fileSource{series: series}, nil
}

func (s *fileSource) FetchDaily(_ context.Context, _ weather.Location, from, to time.Time) (weather.DailySeries, error) {
	var out weather.DailySeries
	for _, r := range s.series {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, weather.ErrNoData
	}
	return out.Clone(), nil
}

func printReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "\nReport %s\n", rep.ID)
	fmt.Fprintf(w, "Location: %.4f, %.4f", rep.Location.Latitude, rep.Location.Longitude)
	if rep.Place != nil && rep.Place.Label != "" {
		fmt.Fprintf(w, " (%s)", rep.Place.Label)
	}
	fmt.Fprintf(w, "\nPeriod: %s to %s\n", rep.From.Format(weather.DateLayout), rep.To.Format(weather.DateLayout))

	p := rep.Precipitation
	fmt.Fprintf(w, "\nDate range is: %d days, rolling window is %d\n", p.SpanDays, p.Window)
	fmt.Fprintln(w, "Precipitation quick stats:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Max precipitation\t%s mm\t%s\n", num(p.QuickStats.MaxPrecipitation), p.QuickStats.DayMostRain.Format(weather.DateLayout))
	fmt.Fprintf(tw, "  Min precipitation\t%s mm\t%s\n", num(p.QuickStats.MinPrecipitation), p.QuickStats.DayLeastRain.Format(weather.DateLayout))
	tw.Flush()

	fmt.Fprintln(w, "\nTemperature summary:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, row := range []struct {
		name string
		s    analysis.Summary
	}{
		{"TemperatureMax", rep.Temperature.Describe.TemperatureMax},
		{"TemperatureMin", rep.Temperature.Describe.TemperatureMin},
	} {
		s := row.s
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", row.name, s.Count,
			num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max))
	}
	tw.Flush()

	fmt.Fprintf(w, "\nHeatwave days: %d, cold snap days: %d\n", len(rep.Temperature.Heatwaves), len(rep.Temperature.ColdSnaps))

	if rep.Seasons != nil {
		fmt.Fprintf(w, "\nSeasonal midpoint: %s °C\n", num(rep.Seasons.Midpoint))
		for _, tr := range rep.Seasons.Transitions {
			kind := "cooling"
			if tr.Warming {
				kind = "warming"
			}
			fmt.Fprintf(w, "  %s  %s (%s °C)\n", tr.Date.Format(weather.DateLayout), kind, num(tr.Temperature))
		}
	}

	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func export(dir string, rep *report.Report, out io.Writer) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("export target is not a directory")
	}

	dataPath := filepath.Join(dir, "weather_data.csv")
	if err := writeFile(dataPath, func(w io.Writer) error { return weather.WriteCSV(w, rep.Series) }); err != nil {
		return err
	}
	summaryPath := filepath.Join(dir, "precipitation_summary.csv")
	if err := writeFile(summaryPath, func(w io.Writer) error { return analysis.WriteSummaryCSV(w, rep.Precipitation.Records) }); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nExported %s and %s\n", dataPath, summaryPath)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
