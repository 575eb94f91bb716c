package weather_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weather-now/internal/weather"
)

func currentBody(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/current.json")
	require.NoError(t, err)
	return b
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func newTestClient(srv *httptest.Server) *weather.Client {
	return weather.NewClientWithURLs(srv.URL+"/data/2.5/weather", srv.URL+"/img/wn/%s@2x.png", "test-key")
}

func TestClient_FetchCurrent_ByCity(t *testing.T) {
	body := currentBody(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "Mountain View", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchCurrent(context.Background(), weather.ByCityName("Mountain%20View"))
	require.NoError(t, err)
	assert.Equal(t, "Mountain View", res.Name)
	assert.Equal(t, 86.16, res.Main.Temp)
	assert.Equal(t, 1010, res.Main.Pressure)
	assert.Equal(t, -25200, res.Timezone)
	require.NotNil(t, res.Rain)
	require.NotNil(t, res.Rain.OneHour)
	assert.Equal(t, 0.25, *res.Rain.OneHour)
	assert.Nil(t, res.Rain.ThreeHour)
	assert.Nil(t, res.Snow)
}

func TestClient_FetchCurrent_ByCoordinates(t *testing.T) {
	body := currentBody(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "37.39", r.URL.Query().Get("lat"))
		assert.Equal(t, "-122.08", r.URL.Query().Get("lon"))
		assert.Empty(t, r.URL.Query().Get("q"))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchCurrent(context.Background(), weather.ByCoordinates(37.39, -122.08))
	require.NoError(t, err)
	assert.Equal(t, "US", res.Sys.Country)
}

func TestClient_FetchCurrent_InvalidQueries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c := newTestClient(srv)

	for name, q := range map[string]weather.Query{
		"empty city":   weather.ByCityName(""),
		"space":        weather.ByCityName("New York"),
		"bad escape":   weather.ByCityName("Par%zzis"),
		"non ascii":    weather.ByCityName("São Paulo"),
		"zero query":   {},
		"control char": weather.ByCityName("Paris\n"),
	} {
		_, err := c.FetchCurrent(context.Background(), q)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, weather.ErrInvalidURL, name)
	}
	assert.Zero(t, hits.Load(), "invalid queries must never reach the network")
}

func TestClient_FetchCurrent_NetworkFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(srv)
	srv.Close()

	_, err := c.FetchCurrent(context.Background(), weather.ByCityName("Paris"))
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrNetworkFailed)
	assert.NotContains(t, err.Error(), "test-key", "api key must not leak into errors")
}

func TestClient_FetchCurrent_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv).FetchCurrent(ctx, weather.ByCityName("Paris"))
	assert.ErrorIs(t, err, weather.ErrNetworkFailed)
}

func TestClient_FetchCurrent_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchCurrent(context.Background(), weather.ByCityName("Paris"))
	assert.ErrorIs(t, err, weather.ErrSerializationFailed)
}

func TestClient_FetchCurrent_DecodeFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": 42}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchCurrent(context.Background(), weather.ByCityName("Paris"))
	assert.ErrorIs(t, err, weather.ErrDecodeFailed)
}

func TestClient_FetchCurrent_ProviderErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchCurrent(context.Background(), weather.ByCityName("Atlantis"))
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrDecodeFailed)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, "Something went wrong. Please try later.", weather.AsError(err).Message())
}

func TestClient_FetchIcon(t *testing.T) {
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/img/wn/01d@2x.png", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	got, err := newTestClient(srv).FetchIcon(context.Background(), "01d")
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestClient_FetchIcon_NotAnImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchIcon(context.Background(), "01d")
	assert.ErrorIs(t, err, weather.ErrDecodeFailed)
}

func TestClient_FetchIcon_EmptyID(t *testing.T) {
	c := weather.NewClient("key", 0)
	_, err := c.FetchIcon(context.Background(), "")
	assert.ErrorIs(t, err, weather.ErrInvalidURL)
}
