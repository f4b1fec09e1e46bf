package backend

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements Runner for Google Gemini via the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// Ensure GeminiClient implements Runner
var _ Runner = (*GeminiClient)(nil)

// GeminiConfig configures a Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  config.Model,
	}, nil
}

// Run executes one generation call against Gemini.
func (c *GeminiClient) Run(ctx context.Context, model string, req Request) (string, error) {
	if model == "" {
		model = c.model
	}

	genConfig := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			genConfig.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// Provider identifies this client.
func (c *GeminiClient) Provider() Provider {
	return ProviderGemini
}

// Model returns the default model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}
