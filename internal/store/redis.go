package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/i474232898/farm-weather/internal/weather"
)

const redisKeyPrefix = "farm-weather:series:"

// RedisStore is a weather.SeriesCache shared between instances through Redis.
// Series are stored as JSON and expire with the key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore connects to redisURL and verifies the connection.
// A value that is not a redis:// URL is used as a plain host:port address.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed at %s: %w", opt.Addr, err)
	}

	return &RedisStore{client: client, ttl: ttl, prefix: redisKeyPrefix}, nil
}

// Get returns the series stored under key, if any.
func (s *RedisStore) Get(ctx context.Context, key string) (weather.DailySeries, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var series weather.DailySeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, false, fmt.Errorf("decode cached series %s: %w", key, err)
	}
	return series, true, nil
}

// Set stores series under key with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key string, series weather.DailySeries) error {
	raw, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
