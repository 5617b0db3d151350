package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/observability"
	"github.com/i474232898/farm-weather/internal/report"
	"github.com/i474232898/farm-weather/internal/weather"
)

// Scheduler periodically refreshes the series cache for configured locations
// so the first request of the day is served from cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    report.SeriesSource
	locations []weather.Location
	interval  time.Duration
	days      int
	clock     clockwork.Clock
	metrics   *observability.Metrics
}

// New creates a new Scheduler that warms the trailing days for every location.
func New(locations []weather.Location, interval time.Duration, days int, source report.SeriesSource, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		locations: locations,
		interval:  interval,
		days:      days,
		clock:     clockwork.NewRealClock(),
		metrics:   metrics,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = time.Hour
	}

	if _, err := s.scheduler.Every(interval).Do(s.Warm); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Warm fetches the trailing window for every location once.
func (s *Scheduler) Warm() {
	from, to := common.TrailingRange(s.clock, s.days)
	log.Printf("scheduler: warming %d locations for %s..%s",
		len(s.locations), from.Format(weather.DateLayout), to.Format(weather.DateLayout))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := s.source.FetchDaily(ctx, loc, from, to); err != nil {
				log.Printf("scheduler: warm-up failed for %s: %v", loc.Key(), err)
			}
		}()
	}
	wg.Wait()

	if s.metrics != nil {
		s.metrics.WarmRuns.Inc()
	}
	log.Println("scheduler: completed cache warm-up")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
