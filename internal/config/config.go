package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
	Version string `yaml:"-"`

	City      CityConfig      `yaml:"city"`
	Feed      FeedConfig      `yaml:"feed"`
	Assistant AssistantConfig `yaml:"assistant"`
	Refresh   RefreshConfig   `yaml:"refresh"`
}

// CityConfig identifies the city the dashboard reports on
type CityConfig struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`
}

// FeedConfig controls the outbound weather/air-quality client
type FeedConfig struct {
	BaseURL        string `yaml:"base_url"`
	AirBaseURL     string `yaml:"air_base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// AssistantConfig controls the AI chat assistant.
// Provider is one of "gemini", "openai" or "canned"; when empty the
// provider is selected from whichever API key is configured.
type AssistantConfig struct {
	Provider        string `yaml:"provider"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	GeminiModel     string `yaml:"gemini_model"`
	GeminiProModel  string `yaml:"gemini_pro_model"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIModel     string `yaml:"openai_model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// RefreshConfig controls the scheduled observation refresher
type RefreshConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:    8080,
		DataDir: "./data",
		City: CityConfig{
			Name:      "Bengaluru",
			Latitude:  12.9716,
			Longitude: 77.5946,
			Timezone:  "Asia/Kolkata",
		},
		Feed: FeedConfig{
			BaseURL:        "https://api.open-meteo.com/v1",
			AirBaseURL:     "https://air-quality-api.open-meteo.com/v1",
			TimeoutSeconds: 10,
			MaxRetries:     3,
		},
		Assistant: AssistantConfig{
			GeminiModel:     "gemini-2.5-flash",
			GeminiProModel:  "gemini-2.5-pro",
			OpenAIModel:     "gpt-4o",
			MaxOutputTokens: 1000,
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			Schedule: "0 * * * *",
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides on top of the defaults. A missing file at the
// default path is not an error; an explicitly given path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Feed.TimeoutSeconds <= 0 {
		cfg.Feed.TimeoutSeconds = 10
	}
	if cfg.Feed.MaxRetries < 0 {
		cfg.Feed.MaxRetries = 0
	}

	return cfg, nil
}

// applyEnvOverrides layers environment variables over the loaded values.
// API keys never live in the config file checked into a repo; the
// environment is the expected channel for them.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CITYLENS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("CITYLENS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Assistant.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Assistant.OpenAIAPIKey = v
	}

	if c.Assistant.Provider == "" {
		switch {
		case c.Assistant.GeminiAPIKey != "":
			c.Assistant.Provider = "gemini"
		case c.Assistant.OpenAIAPIKey != "":
			c.Assistant.Provider = "openai"
		default:
			c.Assistant.Provider = "canned"
		}
	}
}
