package pitch

import (
	"errors"
	"fmt"

	"github.com/SteveDakota/xfory/internal/backend"
)

// ErrRateLimited indicates the admission window for the client identity
// is exhausted. No backend call is made.
var ErrRateLimited = errors.New("rate limit exceeded, try again in a minute")

// ValidationError reports a request field that failed normalization.
// Surfaced immediately; no backend call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Message
}

// BackendError wraps a non-timeout generation failure. Timeouts never
// produce one of these; they degrade to the fallback pitch instead.
type BackendError struct {
	Provider backend.Provider
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend failed: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
