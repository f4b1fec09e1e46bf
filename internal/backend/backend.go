// Package backend abstracts the generative text service. A backend
// accepts a chat-style prompt and returns free-form text; it may be
// slow, fail outright, or produce output the caller has to repair. The
// pipeline makes exactly one attempt per request — timeout and failure
// policy belong to the caller, and no client here retries.
package backend

import (
	"context"
	"errors"
)

// Provider identifies a backend implementation.
type Provider string

const (
	ProviderWorkers Provider = "workers"
	ProviderGemini  Provider = "gemini"
	ProviderOpenAI  Provider = "openai"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn of the prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries the prompt and generation parameters for one call.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Runner executes a single generation call. Implementations honor ctx
// cancellation and deadlines; a deadline hit surfaces as an error
// wrapping context.DeadlineExceeded so callers can tell timeouts from
// hard failures.
type Runner interface {
	Run(ctx context.Context, model string, req Request) (string, error)
	Provider() Provider
}

// ErrNotConfigured indicates no backend credentials were found.
var ErrNotConfigured = errors.New("backend not configured")

// ErrEmptyCompletion indicates the backend answered without any text.
var ErrEmptyCompletion = errors.New("no completion returned")
