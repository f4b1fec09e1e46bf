package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WorkersClient implements Runner for Cloudflare Workers AI.
type WorkersClient struct {
	apiKey     string
	accountID  string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Ensure WorkersClient implements Runner
var _ Runner = (*WorkersClient)(nil)

// WorkersConfig configures a Workers AI client.
type WorkersConfig struct {
	APIKey    string
	AccountID string
	BaseURL   string
	Model     string
	Timeout   time.Duration
}

// DefaultWorkersConfig returns sensible defaults.
func DefaultWorkersConfig(apiKey, accountID string) WorkersConfig {
	return WorkersConfig{
		APIKey:    apiKey,
		AccountID: accountID,
		BaseURL:   "https://api.cloudflare.com/client/v4",
		Model:     "@cf/meta/llama-3.1-8b-instruct",
		Timeout:   10 * time.Second,
	}
}

// NewWorkersClient creates a Workers AI client.
func NewWorkersClient(config WorkersConfig) *WorkersClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.cloudflare.com/client/v4"
	}
	if config.Model == "" {
		config.Model = "@cf/meta/llama-3.1-8b-instruct"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &WorkersClient{
		apiKey:    config.APIKey,
		accountID: config.AccountID,
		baseURL:   strings.TrimSuffix(config.BaseURL, "/"),
		model:     config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// workersRequest is the Workers AI run payload.
type workersRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// workersResponse is the Cloudflare API envelope.
type workersResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Run executes one generation call against Workers AI.
func (c *WorkersClient) Run(ctx context.Context, model string, req Request) (string, error) {
	if c.apiKey == "" || c.accountID == "" {
		return "", ErrNotConfigured
	}
	if model == "" {
		model = c.model
	}

	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(workersRequest{
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(respBody), 512))
	}

	var parsed workersResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if !parsed.Success {
		if len(parsed.Errors) > 0 {
			return "", fmt.Errorf("API error %d: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
		}
		return "", fmt.Errorf("API reported failure without detail")
	}

	text := strings.TrimSpace(parsed.Result.Response)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// Provider identifies this client.
func (c *WorkersClient) Provider() Provider {
	return ProviderWorkers
}

// Model returns the default model identifier.
func (c *WorkersClient) Model() string {
	return c.model
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
