// Package location supplies the device coordinate used for the first fetch
// of a session.
package location

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/neexbeast/weather-now/internal/weather"
)

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("no device location configured")

// Provider yields exactly one coordinate or one failure per request.
type Provider interface {
	RequestOnce(ctx context.Context) (weather.Coordinates, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (weather.Coordinates, error)

// RequestOnce calls f(ctx).
func (f ProviderFunc) RequestOnce(ctx context.Context) (weather.Coordinates, error) { return f(ctx) }

// Static always yields the same coordinate.
type Static struct {
	coords weather.Coordinates
}

// NewStatic returns a Provider that always yields coords.
func NewStatic(coords weather.Coordinates) *Static {
	return &Static{coords: coords}
}

// RequestOnce yields the configured coordinate unless ctx is already done.
func (s *Static) RequestOnce(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, err
	}
	return s.coords, nil
}

// Unconfigured always fails, like a device that denied location access.
type Unconfigured struct{}

// RequestOnce always returns ErrNotConfigured.
func (Unconfigured) RequestOnce(context.Context) (weather.Coordinates, error) {
	return weather.Coordinates{}, ErrNotConfigured
}

// Target is the interface satisfied by presenter.Presenter.
type Target interface {
	Fetch(ctx context.Context, q weather.Query)
	ReportError(err error)
}

// Locator forwards the first coordinate of the session to a Target. Later
// calls after a success do nothing.
type Locator struct {
	provider Provider
	target   Target
	log      *slog.Logger
	located  atomic.Bool
}

// NewLocator constructs a Locator. A nil log uses slog.Default().
func NewLocator(provider Provider, target Target, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	return &Locator{provider: provider, target: target, log: log}
}

// Locate requests the coordinate and starts a fetch for it. A provider
// failure is reported to the target as LocationUnavailable and returned.
func (l *Locator) Locate(ctx context.Context) error {
	if l.located.Load() {
		return nil
	}

	coords, err := l.provider.RequestOnce(ctx)
	if err != nil {
		we := weather.LocationUnavailable(err)
		l.log.Warn("location request failed", "err", err)
		l.target.ReportError(we)
		return we
	}

	if !l.located.CompareAndSwap(false, true) {
		return nil
	}
	l.log.Info("location acquired", "lat", coords.Lat, "lon", coords.Lon)
	l.target.Fetch(ctx, weather.ByCoordinates(coords.Lat, coords.Lon))
	return nil
}
