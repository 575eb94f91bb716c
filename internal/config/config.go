package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/neexbeast/weather-now/internal/weather"
)

// Cache backends selectable with CACHE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type AppConfig struct {
	OpenWeatherAPIKey string `validate:"required"`
	Port              string `validate:"required,numeric"`

	CacheBackend string `validate:"oneof=memory redis postgres sqlite"`
	RedisURL     string `validate:"required_if=CacheBackend redis"`
	DatabaseURL  string `validate:"required_if=CacheBackend postgres"`
	SQLitePath   string `validate:"required_if=CacheBackend sqlite"`

	// HTTPTimeout bounds each provider request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Static device location used for the first fetch. Both or neither.
	LocationLat *float64 `validate:"omitempty,min=-90,max=90"`
	LocationLon *float64 `validate:"omitempty,min=-180,max=180"`
}

var validate = validator.New()

// Load reads configuration from the environment (and .env if present) with
// sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		Port:              getenvDefault("PORT", "8080"),
		CacheBackend:      getenvDefault("CACHE_BACKEND", BackendMemory),
		RedisURL:          os.Getenv("REDIS_URL"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        getenvDefault("SQLITE_PATH", "weather.db"),
	}

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if cfg.LocationLat, err = getenvFloat("LOCATION_LAT"); err != nil {
		return nil, err
	}
	if cfg.LocationLon, err = getenvFloat("LOCATION_LON"); err != nil {
		return nil, err
	}
	if (cfg.LocationLat == nil) != (cfg.LocationLon == nil) {
		return nil, errors.New("LOCATION_LAT and LOCATION_LON must be set together")
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Location returns the configured static coordinates, if any.
func (c *AppConfig) Location() (weather.Coordinates, bool) {
	if c.LocationLat == nil || c.LocationLon == nil {
		return weather.Coordinates{}, false
	}
	return weather.Coordinates{Lat: *c.LocationLat, Lon: *c.LocationLon}, true
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
