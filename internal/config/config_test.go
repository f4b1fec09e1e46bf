package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearBackendEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CLOUDFLARE_API_TOKEN", "")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "xfory", cfg.Name)
	assert.Equal(t, "workers", cfg.Backend.Provider)
	assert.Equal(t, "@cf/meta/llama-3.1-8b-instruct", cfg.Backend.Model)

	// The admission contract: 30 requests per 60s window, keys expire
	// slightly after the window closes.
	assert.Equal(t, 30, cfg.Limiter.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.GetWindow())
	assert.Equal(t, 65*time.Second, cfg.GetExpiry())
	assert.Equal(t, 10*time.Second, cfg.GetBackendTimeout())
}

func TestLoad(t *testing.T) {
	clearBackendEnv(t)

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Limiter, cfg.Limiter)
	})

	t.Run("yaml values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "xfory.yaml")
		data := []byte("server:\n  addr: \":9999\"\nlimiter:\n  max_requests: 5\n  window: 10s\n")
		require.NoError(t, os.WriteFile(path, data, 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.Server.Addr)
		assert.Equal(t, 5, cfg.Limiter.MaxRequests)
		assert.Equal(t, 10*time.Second, cfg.GetWindow())
		// Untouched sections keep their defaults.
		assert.Equal(t, "10s", cfg.Backend.Timeout)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "xfory.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("OPENAI_API_KEY sets provider", func(t *testing.T) {
		clearBackendEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.Backend.APIKey)
		assert.Equal(t, "openai", cfg.Backend.Provider)
	})

	t.Run("GEMINI_API_KEY beats OPENAI_API_KEY", func(t *testing.T) {
		clearBackendEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GEMINI_API_KEY", "gm-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gm-key", cfg.Backend.APIKey)
		assert.Equal(t, "gemini", cfg.Backend.Provider)
	})

	t.Run("CLOUDFLARE_API_TOKEN beats everything", func(t *testing.T) {
		clearBackendEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GEMINI_API_KEY", "gm-key")
		t.Setenv("CLOUDFLARE_API_TOKEN", "cf-token")
		t.Setenv("CLOUDFLARE_ACCOUNT_ID", "cf-account")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "cf-token", cfg.Backend.APIKey)
		assert.Equal(t, "workers", cfg.Backend.Provider)
		assert.Equal(t, "cf-account", cfg.Backend.AccountID)
	})

	t.Run("server and redis overrides", func(t *testing.T) {
		clearBackendEnv(t)
		t.Setenv("XFORY_ADDR", ":1234")
		t.Setenv("XFORY_ALLOWED_ORIGIN", "https://xfory.dev")
		t.Setenv("REDIS_ADDR", "redis:6379")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, ":1234", cfg.Server.Addr)
		assert.Equal(t, "https://xfory.dev", cfg.Server.AllowedOrigin)
		assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	})
}

func TestDurationGetters_FallBackOnGarbage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Timeout = "not-a-duration"
	cfg.Limiter.Window = ""
	cfg.Limiter.Expiry = "soon"

	assert.Equal(t, 10*time.Second, cfg.GetBackendTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetWindow())
	assert.Equal(t, 65*time.Second, cfg.GetExpiry())
}

func TestValidate(t *testing.T) {
	t.Run("valid workers config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend.APIKey = "token"
		cfg.Backend.AccountID = "account"
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key not configured")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend.APIKey = "key"
		cfg.Backend.Provider = "quantum"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid backend provider")
	})

	t.Run("workers without account id", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend.APIKey = "token"
		cfg.Backend.AccountID = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "account ID")
	})

	t.Run("non-positive ceiling", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend.APIKey = "key"
		cfg.Backend.Provider = "openai"
		cfg.Limiter.MaxRequests = 0
		require.Error(t, cfg.Validate())
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearBackendEnv(t)

	path := filepath.Join(t.TempDir(), "conf", "xfory.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = ":4242"
	cfg.Limiter.MaxRequests = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":4242", loaded.Server.Addr)
	assert.Equal(t, 7, loaded.Limiter.MaxRequests)
}
