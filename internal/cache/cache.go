package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/neexbeast/weather-now/internal/weather"
)

// LastSavedKey is the single key holding the last fetched weather result.
const LastSavedKey = "lastSavedWeather"

const iconKeyPrefix = "icon:"

// Backend is a byte store. Get returns nil, nil on a miss.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

var errNoBackend = errors.New("no cache backend configured")

// WeatherCache persists the last weather result and icon bytes. It is
// best-effort: failures are logged and never returned.
type WeatherCache struct {
	backend Backend
	log     *slog.Logger
}

// NewWeatherCache constructs a WeatherCache. A nil backend yields a cache
// that stores nothing.
func NewWeatherCache(backend Backend, log *slog.Logger) *WeatherCache {
	if log == nil {
		log = slog.Default()
	}
	return &WeatherCache{backend: backend, log: log}
}

// Save overwrites the last saved result.
func (c *WeatherCache) Save(ctx context.Context, r *weather.Result) {
	if c.backend == nil {
		return
	}
	b, err := weather.Encode(r)
	if err != nil {
		c.log.Warn("cache save: encoding weather failed", "err", err)
		return
	}
	if err := c.backend.Put(ctx, LastSavedKey, b); err != nil {
		c.log.Warn("cache save failed", "key", LastSavedKey, "err", err)
	}
}

// LoadLast returns the last saved result. Missing, unreadable or corrupt
// entries all report false.
func (c *WeatherCache) LoadLast(ctx context.Context) (*weather.Result, bool) {
	if c.backend == nil {
		return nil, false
	}
	b, err := c.backend.Get(ctx, LastSavedKey)
	if err != nil {
		c.log.Warn("cache load failed", "key", LastSavedKey, "err", err)
		return nil, false
	}
	if b == nil {
		return nil, false
	}
	r, err := weather.Decode(b)
	if err != nil {
		c.log.Warn("cached weather is unreadable", "key", LastSavedKey, "err", err)
		return nil, false
	}
	return r, true
}

// Icon returns cached icon bytes for iconID.
func (c *WeatherCache) Icon(ctx context.Context, iconID string) ([]byte, bool) {
	if c.backend == nil || iconID == "" {
		return nil, false
	}
	b, err := c.backend.Get(ctx, iconKeyPrefix+iconID)
	if err != nil {
		c.log.Warn("icon cache load failed", "icon", iconID, "err", err)
		return nil, false
	}
	if len(b) == 0 {
		return nil, false
	}
	return b, true
}

// StoreIcon caches icon bytes under iconID.
func (c *WeatherCache) StoreIcon(ctx context.Context, iconID string, img []byte) {
	if c.backend == nil || iconID == "" || len(img) == 0 {
		return
	}
	if err := c.backend.Put(ctx, iconKeyPrefix+iconID, img); err != nil {
		c.log.Warn("icon cache save failed", "icon", iconID, "err", err)
	}
}

// Ping checks the backend. It is the one method that reports failures, for
// health checks.
func (c *WeatherCache) Ping(ctx context.Context) error {
	if c.backend == nil {
		return errNoBackend
	}
	return c.backend.Ping(ctx)
}
