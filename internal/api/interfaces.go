package api

import (
	"context"

	"github.com/neexbeast/weather-now/internal/presenter"
	"github.com/neexbeast/weather-now/internal/weather"
)

// WeatherPresenter defines the presenter operations needed by handlers.
type WeatherPresenter interface {
	Snapshot() presenter.Snapshot
	ConsumeError() *weather.Error
	Fetch(ctx context.Context, q weather.Query)
	Subscribe(fn func()) (unsubscribe func())
}

// CachePinger reports whether the cache backend is reachable.
type CachePinger interface {
	Ping(ctx context.Context) error
}
