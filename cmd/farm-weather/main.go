package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/farm-weather/internal/api/http"
	"github.com/i474232898/farm-weather/internal/config"
	"github.com/i474232898/farm-weather/internal/observability"
	"github.com/i474232898/farm-weather/internal/report"
	"github.com/i474232898/farm-weather/internal/scheduler"
	"github.com/i474232898/farm-weather/internal/store"
	"github.com/i474232898/farm-weather/internal/weather"
	"github.com/i474232898/farm-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	backoff := providers.WithBackoff(providers.BackoffConfig{
		MaxRetries:      cfg.RetryMax,
		InitialInterval: cfg.RetryInitial,
		MaxInterval:     cfg.RetryMaxInterval,
	})

	metrics := observability.NewMetrics()

	cache, closeCache := newCache(cfg)
	defer closeCache()

	// Providers with resilience (backoff + circuit breaker).
	// Open-Meteo needs no API key; WeatherAPI joins when a key is configured.
	provs := []weather.HistoryProvider{providers.NewOpenMeteoProvider(httpClient, backoff)}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, backoff))
	}

	// Core service orchestrating providers and cache.
	service := weather.NewService(cache, provs, metrics)
	places := providers.NewGeoAPIResolver(httpClient, backoff)
	builder := report.NewBuilder(service, places, metrics, report.Thresholds{
		Heat: cfg.HeatwaveThreshold,
		Cold: cfg.ColdSnapThreshold,
	})

	// Scheduler that keeps recent history for known farms warm.
	sched := scheduler.New(cfg.WarmLocations, cfg.WarmInterval, cfg.WarmDays, service, metrics)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "farm-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "farm-weather",
			"providers": service.Providers(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		Series:  service,
		Builder: builder,
		Places:  places,
	})

	go func() {
		log.Printf("INFO: listening on :%s with providers %v", cfg.Port, service.Providers())
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func newCache(cfg *config.AppConfig) (weather.SeriesCache, func()) {
	if cfg.CacheBackend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rs, err := store.NewRedisStore(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err == nil {
			log.Printf("INFO: caching series in redis")
			return rs, func() { _ = rs.Close() }
		}
		log.Printf("ERROR: %v; falling back to in-memory cache", err)
	}
	return store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheTTL), func() {}
}
