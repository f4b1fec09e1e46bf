package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all xfory configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP boundary
	Server ServerConfig `yaml:"server"`

	// Generative backend
	Backend BackendConfig `yaml:"backend"`

	// Admission control
	Limiter LimiterConfig `yaml:"limiter"`

	// Counter store
	Redis RedisConfig `yaml:"redis"`

	// Pitch generation
	Pitch PitchConfig `yaml:"pitch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Usage metering
	Usage UsageConfig `yaml:"usage"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	MaxConns        int    `yaml:"max_conns"` // 0 = unlimited
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	AllowedOrigin   string `yaml:"allowed_origin"`
}

// BackendConfig configures the generative backend.
type BackendConfig struct {
	Provider    string  `yaml:"provider"` // workers, gemini, openai
	APIKey      string  `yaml:"api_key"`
	AccountID   string  `yaml:"account_id"` // workers only
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Pacing      string  `yaml:"pacing"` // min interval between outbound calls, "0s" = off
}

// LimiterConfig configures per-client admission.
type LimiterConfig struct {
	Window      string `yaml:"window"`
	MaxRequests int    `yaml:"max_requests"`
	Expiry      string `yaml:"expiry"` // counter key TTL, slightly longer than the window
	KeyPrefix   string `yaml:"key_prefix"`
}

// RedisConfig configures the external counter store.
type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty = in-memory counter store
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PitchConfig configures prompt rendering.
type PitchConfig struct {
	TemplatePath  string `yaml:"template_path"` // empty = built-in template
	WatchTemplate bool   `yaml:"watch_template"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// UsageConfig configures generation metering.
type UsageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "xfory",
		Version: "1.0.0",

		Server: ServerConfig{
			Addr:            ":8787",
			MaxConns:        0,
			ReadTimeout:     "15s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
			AllowedOrigin:   "*",
		},

		Backend: BackendConfig{
			Provider:    "workers",
			Model:       "@cf/meta/llama-3.1-8b-instruct",
			BaseURL:     "https://api.cloudflare.com/client/v4",
			Timeout:     "10s",
			Temperature: 0.7,
			MaxTokens:   512,
			Pacing:      "0s",
		},

		Limiter: LimiterConfig{
			Window:      "60s",
			MaxRequests: 30,
			Expiry:      "65s",
			KeyPrefix:   "xfory:rl:",
		},

		Redis: RedisConfig{
			Addr: "",
			DB:   0,
		},

		Pitch: PitchConfig{
			TemplatePath:  "",
			WatchTemplate: false,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},

		Usage: UsageConfig{
			Enabled: true,
			Path:    ".xfory/usage.json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Backend credentials from environment (check in priority order; the
	// last match wins, so Workers AI beats the generic providers).
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Backend.APIKey = key
		c.Backend.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Backend.APIKey = key
		c.Backend.Provider = "gemini"
	}
	if key := os.Getenv("CLOUDFLARE_API_TOKEN"); key != "" {
		c.Backend.APIKey = key
		c.Backend.Provider = "workers"
	}
	if account := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); account != "" {
		c.Backend.AccountID = account
	}
	if model := os.Getenv("XFORY_MODEL"); model != "" {
		c.Backend.Model = model
	}

	// HTTP boundary
	if addr := os.Getenv("XFORY_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if origin := os.Getenv("XFORY_ALLOWED_ORIGIN"); origin != "" {
		c.Server.AllowedOrigin = origin
	}

	// Counter store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
}

// GetBackendTimeout returns the backend call timeout as a duration.
func (c *Config) GetBackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetPacingInterval returns the minimum interval between outbound backend calls.
func (c *Config) GetPacingInterval() time.Duration {
	d, err := time.ParseDuration(c.Backend.Pacing)
	if err != nil {
		return 0
	}
	return d
}

// GetWindow returns the rate-limit window as a duration.
func (c *Config) GetWindow() time.Duration {
	d, err := time.ParseDuration(c.Limiter.Window)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetExpiry returns the counter key TTL as a duration.
func (c *Config) GetExpiry() time.Duration {
	d, err := time.ParseDuration(c.Limiter.Expiry)
	if err != nil {
		return 65 * time.Second
	}
	return d
}

// GetReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetWriteTimeout returns the HTTP write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the graceful shutdown deadline as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidProviders lists all supported backend providers.
var ValidProviders = []string{"workers", "gemini", "openai"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backend.APIKey == "" {
		return fmt.Errorf("backend API key not configured (set CLOUDFLARE_API_TOKEN, GEMINI_API_KEY, or OPENAI_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.Backend.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid backend provider: %s (valid: %v)", c.Backend.Provider, ValidProviders)
	}

	if c.Backend.Provider == "workers" && c.Backend.AccountID == "" {
		return fmt.Errorf("workers backend requires an account ID (set CLOUDFLARE_ACCOUNT_ID)")
	}

	if c.Limiter.MaxRequests <= 0 {
		return fmt.Errorf("limiter max_requests must be positive, got %d", c.Limiter.MaxRequests)
	}

	return nil
}
