package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/neexbeast/weather-now/internal/presenter"
	"github.com/neexbeast/weather-now/internal/weather"
)

var validate = validator.New()

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	presenter WeatherPresenter
	log       *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(p WeatherPresenter, log *slog.Logger) *Handlers {
	return &Handlers{
		presenter: p,
		log:       log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type weatherResponse struct {
	State   string             `json:"state"`
	Weather *presenter.Display `json:"weather,omitempty"`
	HasIcon bool               `json:"has_icon"`
	Error   *errorBody         `json:"error,omitempty"`
}

// GetWeather handles GET /api/v1/weather.
// A pending error is returned once and then cleared.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	pending := h.presenter.ConsumeError()
	snap := h.presenter.Snapshot()

	resp := weatherResponse{
		State:   snap.State.String(),
		HasIcon: len(snap.Icon) > 0,
	}
	if snap.Weather != (presenter.Display{}) {
		resp.Weather = &snap.Weather
	}
	if pending != nil {
		resp.Error = &errorBody{Code: pending.Kind.String(), Message: pending.Message()}
	}

	writeJSON(w, http.StatusOK, resp)
}

type queryRequest struct {
	City *string  `json:"city"`
	Lat  *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon  *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
}

func (q queryRequest) query() (weather.Query, error) {
	hasCoords := q.Lat != nil || q.Lon != nil
	switch {
	case q.City != nil && hasCoords:
		return weather.Query{}, errors.New("city and coordinates are mutually exclusive")
	case q.City != nil:
		return weather.ByCityName(*q.City), nil
	case q.Lat != nil && q.Lon != nil:
		return weather.ByCoordinates(*q.Lat, *q.Lon), nil
	case hasCoords:
		return weather.Query{}, errors.New("lat and lon must be given together")
	default:
		return weather.Query{}, errors.New("either city or lat/lon is required")
	}
}

// SubmitQuery handles POST /api/v1/weather/query.
// The fetch runs in the background; the result arrives as a state change.
func (h *Handlers) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coordinates out of range"})
		return
	}
	q, err := req.query()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.presenter.Fetch(r.Context(), q)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "query": q.String()})
}

// GetIcon handles GET /api/v1/weather/icon.
func (h *Handlers) GetIcon(w http.ResponseWriter, _ *http.Request) {
	icon := h.presenter.Snapshot().Icon
	if len(icon) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no icon available"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(icon)
}

// Events handles GET /api/v1/weather/events as a server-sent event stream
// with one "changed" event per presenter notification.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	changed := make(chan presenter.State, 16)
	unsubscribe := h.presenter.Subscribe(func() {
		select {
		case changed <- h.presenter.Snapshot().State:
		default:
			h.log.Warn("event stream client is slow, dropping event")
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-changed:
			if _, err := fmt.Fprintf(w, "event: changed\ndata: %s\n\n", state); err != nil {
				h.log.Debug("event stream write failed", "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

// HealthHandlerFunc returns an http.HandlerFunc that checks cache backend
// connectivity. Returns 200 if ok, 503 otherwise.
func HealthHandlerFunc(cache CachePinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		overall := "ok"
		cacheStatus := "ok"

		if err := cache.Ping(ctx); err != nil {
			log.Error("health check: cache ping failed", "err", err)
			cacheStatus = "error"
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"cache":  cacheStatus,
		})
	}
}
