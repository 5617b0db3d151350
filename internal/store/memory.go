package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/farm-weather/internal/weather"
)

type entry struct {
	series   weather.DailySeries
	storedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.SeriesCache.
type MemoryStore struct {
	mu sync.RWMutex

	// key: request key, value: cached series
	data map[string]entry

	// retention configuration
	maxEntries int           // max number of cached series, oldest evicted first
	ttl        time.Duration // entries older than this are treated as absent
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// maxEntries <= 0 means unlimited and ttl <= 0 means entries never expire.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(maxEntries, ttl, clockwork.NewRealClock())
}

// NewMemoryStoreWithClock is NewMemoryStore with an injectable clock.
func NewMemoryStoreWithClock(maxEntries int, ttl time.Duration, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
	}
}

// Get returns a copy of the cached series for key.
func (s *MemoryStore) Get(_ context.Context, key string) (weather.DailySeries, bool, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if s.expired(e) {
		s.mu.Lock()
		if cur, still := s.data[key]; still && s.expired(cur) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.series.Clone(), true, nil
}

// Set stores a copy of series under key and enforces retention.
func (s *MemoryStore) Set(_ context.Context, key string, series weather.DailySeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{series: series.Clone(), storedAt: s.clock.Now()}

	// Enforce retention by age.
	for k, e := range s.data {
		if s.expired(e) {
			delete(s.data, k)
		}
	}

	// Enforce retention by count.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range s.data {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(s.data, oldestKey)
	}
	return nil
}

// Len reports how many entries are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(e entry) bool {
	return s.ttl > 0 && s.clock.Since(e.storedAt) >= s.ttl
}
