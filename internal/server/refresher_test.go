package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/assistant"
	"github.com/kartoza/citylens/internal/config"
	"github.com/kartoza/citylens/internal/fetch"
	"github.com/kartoza/citylens/internal/history"
	"github.com/kartoza/citylens/internal/simulate"
	"github.com/kartoza/citylens/internal/weather"
)

// newFeedServer mimics the two Open-Meteo endpoints with fixed readings
func newFeedServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/forecast":
			w.Write([]byte(`{"current": {
				"time": "2025-04-12T14:00",
				"temperature_2m": 33.4,
				"relative_humidity_2m": 58,
				"apparent_temperature": 36.1,
				"weather_code": 2,
				"wind_speed_10m": 9.5,
				"wind_direction_10m": 210
			}}`))
		case "/air-quality":
			w.Write([]byte(`{"current": {
				"time": "2025-04-12T14:00",
				"pm10": 85.0,
				"pm2_5": 45.0,
				"carbon_monoxide": 410.0,
				"nitrogen_dioxide": 38.0,
				"sulphur_dioxide": 12.0,
				"ozone": 65.0
			}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestRefresher(t *testing.T, feedURL string) (*refresher, *history.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Feed.BaseURL = feedURL
	cfg.Feed.AirBaseURL = feedURL

	logger := zap.NewNop()
	fetcher := fetch.New(2*time.Second, 0, logger)
	wc := weather.NewClient(&cfg, fetcher, simulate.New(1), logger)

	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)

	sessions := assistant.NewSessionStore(time.Hour, 40)
	return newRefresher("0 * * * *", wc, store, sessions, logger), store
}

func TestRefreshRecordsObservations(t *testing.T) {
	srv := newFeedServer()
	defer srv.Close()

	r, store := newTestRefresher(t, srv.URL)
	defer store.Close()

	r.refresh()

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	temp, err := store.Latest("temperature", history.CityStation)
	require.NoError(t, err)
	require.NotNil(t, temp)
	assert.InDelta(t, 33.4, temp.Value, 1e-9)
	assert.Equal(t, weather.SourceLive, temp.Source)
	assert.Zero(t, temp.ObservedAt.Minute())
	assert.WithinDuration(t, time.Now().UTC(), temp.ObservedAt.UTC(), time.Hour)

	aqi, err := store.Latest("aqi", history.CityStation)
	require.NoError(t, err)
	require.NotNil(t, aqi)
	assert.InDelta(t, 124, aqi.Value, 1e-9)
}

func TestRefreshUpsertsWithinTheHour(t *testing.T) {
	srv := newFeedServer()
	defer srv.Close()

	r, store := newTestRefresher(t, srv.URL)
	defer store.Close()

	r.refresh()
	r.refresh()

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRefreshSkipsDownFeed(t *testing.T) {
	r, store := newTestRefresher(t, "http://127.0.0.1:1")
	defer store.Close()

	r.refresh()

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRefreshSweepsIdleSessions(t *testing.T) {
	srv := newFeedServer()
	defer srv.Close()

	r, store := newTestRefresher(t, srv.URL)
	defer store.Close()

	r.sessions = assistant.NewSessionStore(10*time.Millisecond, 40)
	r.sessions.Open("stale")
	time.Sleep(25 * time.Millisecond)

	r.refresh()
	assert.Equal(t, 0, r.sessions.Len())
}

func TestRefresherLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := newFeedServer()
	defer srv.Close()

	r, store := newTestRefresher(t, srv.URL)
	defer store.Close()

	r.Start()
	require.Eventually(t, func() bool {
		n, err := store.Count()
		return err == nil && n >= 2
	}, 5*time.Second, 20*time.Millisecond)
	r.Stop()
}
