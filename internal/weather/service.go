package weather

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/farm-weather/internal/observability"
)

// Service orchestrates fetching from multiple history providers and caching the result.
type Service struct {
	cache     SeriesCache
	providers []HistoryProvider
	metrics   *observability.Metrics
}

// NewService creates a new Service. cache and metrics may be nil.
func NewService(cache SeriesCache, providers []HistoryProvider, metrics *observability.Metrics) *Service {
	return &Service{
		cache:     cache,
		providers: providers,
		metrics:   metrics,
	}
}

// FetchDaily returns the daily series for loc between from and to (inclusive).
// Cached series are returned as-is; otherwise all providers are queried
// concurrently and their successful results aggregated per date.
func (s *Service) FetchDaily(ctx context.Context, loc Location, from, to time.Time) (DailySeries, error) {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if len(s.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch weather data for %s", loc.Key())
		return nil, fmt.Errorf("no weather providers configured")
	}

	key := s.cacheKey(loc, from, to)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	log.Printf("DEBUG: FetchDaily called for %s (%s..%s) with %d providers",
		loc.Key(), from.Format(DateLayout), to.Format(DateLayout), len(s.providers))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []DailySeries
		errs    []string
	)

	for _, p := range s.providers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			series, err := p.FetchDaily(ctx, loc, from, to)
			s.observeFetch(p.Name(), start, err)
			if err != nil {
				// Log and continue; partial success is still useful.
				log.Printf("provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
				mu.Lock()
				errs = append(errs, fmt.Sprintf("%s: %v", p.Name(), err))
				mu.Unlock()
				return
			}
			if len(series) == 0 {
				return
			}

			mu.Lock()
			results = append(results, series)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(results) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("%w for %s: %s", ErrNoData, loc.Key(), strings.Join(errs, "; "))
		}
		return nil, fmt.Errorf("%w for %s", ErrNoData, loc.Key())
	}

	series := AggregateSeries(results)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, series); err != nil {
			log.Printf("ERROR: cache store failed for %s: %v", key, err)
		}
	}
	return series.Clone(), nil
}

// Providers returns the names of the configured providers.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

func (s *Service) lookup(ctx context.Context, key string) (DailySeries, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("ERROR: cache lookup failed for %s: %v", key, err)
		ok = false
	}
	if s.metrics != nil {
		result := "miss"
		if ok {
			result = "hit"
		}
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
	if !ok {
		return nil, false
	}
	return cached.Clone(), true
}

func (s *Service) observeFetch(provider string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	s.metrics.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func (s *Service) cacheKey(loc Location, from, to time.Time) string {
	return strings.Join([]string{
		strings.Join(s.Providers(), "+"),
		loc.Key(),
		from.Format(DateLayout),
		to.Format(DateLayout),
	}, "|")
}
