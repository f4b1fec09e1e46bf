package backend

import (
	"context"
	"fmt"
	"os"
	"time"
)

// ProviderConfig holds the resolved provider and credentials.
type ProviderConfig struct {
	Provider  Provider
	APIKey    string
	AccountID string // workers only
	Model     string
	BaseURL   string
	Timeout   time.Duration
	Pacing    time.Duration // min interval between outbound calls, 0 = off
}

// DetectProvider resolves a provider from environment variables.
// Priority: CLOUDFLARE_API_TOKEN > GEMINI_API_KEY > OPENAI_API_KEY.
func DetectProvider() (*ProviderConfig, error) {
	if key := os.Getenv("CLOUDFLARE_API_TOKEN"); key != "" {
		return &ProviderConfig{
			Provider:  ProviderWorkers,
			APIKey:    key,
			AccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		}, nil
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return &ProviderConfig{Provider: ProviderGemini, APIKey: key}, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return &ProviderConfig{Provider: ProviderOpenAI, APIKey: key}, nil
	}
	return nil, fmt.Errorf("%w: set CLOUDFLARE_API_TOKEN, GEMINI_API_KEY, or OPENAI_API_KEY", ErrNotConfigured)
}

// NewRunnerFromConfig creates a Runner from a provider config, with
// pacing applied when configured.
func NewRunnerFromConfig(ctx context.Context, config *ProviderConfig) (Runner, error) {
	runner, err := newBareRunner(ctx, config)
	if err != nil {
		return nil, err
	}
	return WithPacing(runner, config.Pacing), nil
}

func newBareRunner(ctx context.Context, config *ProviderConfig) (Runner, error) {
	switch config.Provider {
	case ProviderWorkers:
		if config.APIKey == "" || config.AccountID == "" {
			return nil, fmt.Errorf("%w: workers needs an API token and account ID", ErrNotConfigured)
		}
		workersCfg := DefaultWorkersConfig(config.APIKey, config.AccountID)
		if config.Model != "" {
			workersCfg.Model = config.Model
		}
		if config.BaseURL != "" {
			workersCfg.BaseURL = config.BaseURL
		}
		if config.Timeout > 0 {
			workersCfg.Timeout = config.Timeout
		}
		return NewWorkersClient(workersCfg), nil

	case ProviderGemini:
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey: config.APIKey,
			Model:  config.Model,
		})

	case ProviderOpenAI:
		openaiCfg := DefaultOpenAIConfig(config.APIKey)
		if config.Model != "" {
			openaiCfg.Model = config.Model
		}
		if config.BaseURL != "" {
			openaiCfg.BaseURL = config.BaseURL
		}
		if config.Timeout > 0 {
			openaiCfg.Timeout = config.Timeout
		}
		return NewOpenAIClient(openaiCfg), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", config.Provider)
	}
}
