package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "Bengaluru", cfg.City.Name)
	assert.InDelta(t, 12.9716, cfg.City.Latitude, 1e-9)
	assert.InDelta(t, 77.5946, cfg.City.Longitude, 1e-9)
	assert.Equal(t, "Asia/Kolkata", cfg.City.Timezone)
	assert.Equal(t, 10, cfg.Feed.TimeoutSeconds)
	assert.Equal(t, 3, cfg.Feed.MaxRetries)
	assert.Equal(t, "0 * * * *", cfg.Refresh.Schedule)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "citylens.yaml")
	content := []byte(`
port: 9191
data_dir: /var/lib/citylens
feed:
  timeout_seconds: 5
  max_retries: 1
assistant:
  provider: canned
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "/var/lib/citylens", cfg.DataDir)
	assert.Equal(t, 5, cfg.Feed.TimeoutSeconds)
	assert.Equal(t, 1, cfg.Feed.MaxRetries)
	assert.Equal(t, "canned", cfg.Assistant.Provider)
	// Untouched sections keep their defaults
	assert.Equal(t, "Bengaluru", cfg.City.Name)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("port and data dir", func(t *testing.T) {
		t.Setenv("CITYLENS_PORT", "7070")
		t.Setenv("CITYLENS_DATA_DIR", "/tmp/cl")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, 7070, cfg.Port)
		assert.Equal(t, "/tmp/cl", cfg.DataDir)
	})

	t.Run("invalid port ignored", func(t *testing.T) {
		t.Setenv("CITYLENS_PORT", "not-a-port")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("gemini key selects gemini provider", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gk")
		t.Setenv("OPENAI_API_KEY", "")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gk", cfg.Assistant.GeminiAPIKey)
		assert.Equal(t, "gemini", cfg.Assistant.Provider)
	})

	t.Run("gemini takes precedence over openai", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gk")
		t.Setenv("OPENAI_API_KEY", "ok")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini", cfg.Assistant.Provider)
	})

	t.Run("openai key alone selects openai", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "ok")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, "openai", cfg.Assistant.Provider)
	})

	t.Run("no keys falls back to canned", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, "canned", cfg.Assistant.Provider)
	})

	t.Run("explicit provider wins over keys", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gk")

		cfg := Default()
		cfg.Assistant.Provider = "canned"
		cfg.applyEnvOverrides()

		assert.Equal(t, "canned", cfg.Assistant.Provider)
	})
}
