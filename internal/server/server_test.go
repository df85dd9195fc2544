package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/config"
	"github.com/kartoza/citylens/internal/fetch"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Feed.BaseURL = "http://127.0.0.1:1"
	cfg.Feed.AirBaseURL = "http://127.0.0.1:1"
	cfg.Refresh.Enabled = false

	srv, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if srv.history != nil {
			srv.history.Close()
		}
		if srv.reports != nil {
			srv.reports.Close()
		}
	})
	return srv
}

func TestServerOpensStores(t *testing.T) {
	srv := newTestServer(t)

	require.NotNil(t, srv.history)
	require.NotNil(t, srv.reports)

	count, err := srv.history.Count()
	require.NoError(t, err)
	assert.Greater(t, count, int64(0))
}

func TestServerServesAPI(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/water/lakes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerServesSPAFallback(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CityLens")

	// client-side routes fall back to the SPA shell
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/dashboard/heat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CityLens")
}

func TestBuildResponder(t *testing.T) {
	fetcher := fetch.New(time.Second, 0, zap.NewNop())
	cfg := config.Default()

	cfg.Assistant.Provider = "gemini"
	cfg.Assistant.GeminiAPIKey = "key"
	require.NotNil(t, buildResponder(cfg, fetcher))
	assert.Equal(t, "gemini", buildResponder(cfg, fetcher).Name())

	cfg.Assistant.Provider = "openai"
	cfg.Assistant.OpenAIAPIKey = "key"
	require.NotNil(t, buildResponder(cfg, fetcher))
	assert.Equal(t, "openai", buildResponder(cfg, fetcher).Name())

	cfg.Assistant.Provider = "canned"
	assert.Nil(t, buildResponder(cfg, fetcher))
}
