package weather_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neexbeast/weather-now/internal/weather"
)

func TestError_TwoTiers(t *testing.T) {
	err := weather.LocationUnavailable(errors.New("permission denied"))

	assert.Equal(t, "unable to find the user's location: permission denied", err.Error())
	assert.Equal(t, "We are unable to find your location. Please check the location permissions again.", err.Message())
	assert.ErrorIs(t, err, weather.ErrLocationUnavailable)
	assert.NotErrorIs(t, err, weather.ErrNetworkFailed)
}

func TestError_DecodeAndSerializationShareMessage(t *testing.T) {
	assert.Equal(t, weather.ErrDecodeFailed.Message(), weather.ErrSerializationFailed.Message())
	assert.NotEqual(t, weather.ErrDecodeFailed.Error(), weather.ErrSerializationFailed.Error())
}

func TestAsError(t *testing.T) {
	assert.Nil(t, weather.AsError(nil))

	wrapped := fmt.Errorf("outer: %w", weather.ErrInvalidURL)
	assert.Equal(t, weather.KindInvalidURL, weather.AsError(wrapped).Kind)

	foreign := weather.AsError(errors.New("boom"))
	assert.Equal(t, weather.KindNetworkFailed, foreign.Kind)
	assert.Equal(t, "network_failed", foreign.Kind.String())
}
