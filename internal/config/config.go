package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/weather"
)

type AppConfig struct {
	Port        string        `yaml:"port" validate:"required"`
	HTTPTimeout time.Duration `yaml:"httpTimeout" validate:"gt=0"`

	// Series cache.
	CacheBackend    string        `yaml:"cacheBackend" validate:"oneof=memory redis"`
	CacheTTL        time.Duration `yaml:"cacheTTL" validate:"gte=0"`
	CacheMaxEntries int           `yaml:"cacheMaxEntries" validate:"gte=0"`
	RedisURL        string        `yaml:"redisURL" validate:"required_if=CacheBackend redis"`

	// Upstream retry policy.
	RetryMax         int           `yaml:"retryMax" validate:"gte=0"`
	RetryInitial     time.Duration `yaml:"retryInitial" validate:"gt=0"`
	RetryMaxInterval time.Duration `yaml:"retryMaxInterval" validate:"gte=0"`

	WeatherAPIKey         string `yaml:"weatherAPIKey"`
	GoogleGeocodingAPIKey string `yaml:"googleGeocodingAPIKey"`

	// Cache warm-up.
	WarmInterval  time.Duration      `yaml:"warmInterval" validate:"gte=0"`
	WarmDays      int                `yaml:"warmDays" validate:"gte=1"`
	WarmLocations []weather.Location `yaml:"-" validate:"dive"`

	HeatwaveThreshold float64 `yaml:"heatwaveThreshold"`
	ColdSnapThreshold float64 `yaml:"coldSnapThreshold"`
}

// fileConfig mirrors AppConfig for the optional YAML file. Locations are
// written as "lat,lon[,name]" strings there too.
type fileConfig struct {
	AppConfig     `yaml:",inline"`
	WarmLocations []string `yaml:"warmLocations"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		Port:              "8080",
		HTTPTimeout:       15 * time.Second,
		CacheBackend:      "memory",
		CacheTTL:          time.Hour,
		CacheMaxEntries:   256,
		RetryMax:          5,
		RetryInitial:      200 * time.Millisecond,
		RetryMaxInterval:  5 * time.Second,
		WarmInterval:      time.Hour,
		WarmDays:          30,
		HeatwaveThreshold: 35,
		ColdSnapThreshold: 5,
	}
}

// Load reads configuration from environment with sensible defaults. Values in
// the YAML file named by CONFIG_FILE sit between the defaults and the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	var err error
	cfg.Port = getenvDefault("PORT", cfg.Port)
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}

	cfg.CacheBackend = getenvDefault("CACHE_BACKEND", cfg.CacheBackend)
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", cfg.CacheMaxEntries)
	cfg.RedisURL = getenvDefault("REDIS_URL", cfg.RedisURL)

	cfg.RetryMax = getenvInt("RETRY_MAX", cfg.RetryMax)
	if cfg.RetryInitial, err = getenvDuration("RETRY_INITIAL", cfg.RetryInitial); err != nil {
		return nil, err
	}
	if cfg.RetryMaxInterval, err = getenvDuration("RETRY_MAX_INTERVAL", cfg.RetryMaxInterval); err != nil {
		return nil, err
	}

	cfg.WeatherAPIKey = getenvDefault("WEATHERAPI_API_KEY", cfg.WeatherAPIKey)
	cfg.GoogleGeocodingAPIKey = getenvDefault("GOOGLE_GEOCODING_API_KEY", cfg.GoogleGeocodingAPIKey)

	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", cfg.WarmInterval); err != nil {
		return nil, err
	}
	cfg.WarmDays = getenvInt("WARM_DAYS", cfg.WarmDays)
	if v := os.Getenv("WARM_LOCATIONS"); v != "" {
		locs, err := common.ParseLocations(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS: %w", err)
		}
		cfg.WarmLocations = locs
	}

	if cfg.HeatwaveThreshold, err = getenvFloat("HEATWAVE_THRESHOLD", cfg.HeatwaveThreshold); err != nil {
		return nil, err
	}
	if cfg.ColdSnapThreshold, err = getenvFloat("COLD_SNAP_THRESHOLD", cfg.ColdSnapThreshold); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	fc := fileConfig{AppConfig: *cfg}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*cfg = fc.AppConfig

	for _, s := range fc.WarmLocations {
		locs, err := common.ParseLocations(s)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.WarmLocations = append(cfg.WarmLocations, locs...)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Printf("ERROR: ignoring invalid %s=%q: %v", key, v, err)
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
