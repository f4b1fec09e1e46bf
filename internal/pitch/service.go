package pitch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SteveDakota/xfory/internal/backend"
	"github.com/SteveDakota/xfory/internal/extract"
	"github.com/SteveDakota/xfory/internal/ratelimit"
	"github.com/SteveDakota/xfory/internal/usage"
)

// DefaultTimeout bounds the single backend call per request.
const DefaultTimeout = 10 * time.Second

// Admitter decides whether a request from an identity enters the
// current rate window. A store error alongside admitted=true means the
// limiter failed open.
type Admitter interface {
	Admit(ctx context.Context, identity string) (bool, error)
}

// Ensure the fixed-window limiter satisfies the admission contract
var _ Admitter = (*ratelimit.FixedWindow)(nil)

// ServiceConfig carries the generation parameters.
type ServiceConfig struct {
	Model       string        // empty uses the runner's default
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration // backend call bound
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Temperature: 0.7,
		MaxTokens:   512,
		Timeout:     DefaultTimeout,
	}
}

// Service orchestrates one pitch generation end to end: sanitize,
// admit, prompt, one bounded backend call, extract, fall back. All
// state it touches is request-scoped except the external counter
// behind the Admitter, so instances are safe for concurrent use.
type Service struct {
	runner      backend.Runner
	limiter     Admitter
	prompts     *PromptBuilder
	logger      *zap.Logger
	tracker     *usage.Tracker
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewService creates a Service. If cfg is nil, defaults are applied.
func NewService(runner backend.Runner, limiter Admitter, cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		runner:      runner,
		limiter:     limiter,
		prompts:     NewPromptBuilder(),
		logger:      zap.NewNop(),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
	}
}

// SetLogger replaces the no-op logger.
func (s *Service) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetTracker attaches an outcome tracker. Optional.
func (s *Service) SetTracker(tracker *usage.Tracker) {
	s.tracker = tracker
}

// Prompts exposes the builder so a TemplateWatcher can be wired to it.
func (s *Service) Prompts() *PromptBuilder {
	return s.prompts
}

// Timeout returns the backend call bound.
func (s *Service) Timeout() time.Duration {
	return s.timeout
}

// Generate produces a pitch for the request, never returning an error
// for anything the fallback templates can absorb. Error cases are
// exactly: invalid input (*ValidationError), admission denied
// (ErrRateLimited), caller cancellation, and a non-timeout backend
// failure (*BackendError). A backend deadline hit is not an error; it
// yields the deterministic fallback pitch.
func (s *Service) Generate(ctx context.Context, identity string, req Request) (Pitch, error) {
	app, niche, err := sanitize(req.App, req.Niche)
	if err != nil {
		return Pitch{}, err
	}

	admitted, err := s.limiter.Admit(ctx, identity)
	if err != nil {
		// Fail open: a broken counter store must not turn into 429s.
		s.logger.Warn("admission check failed, allowing request",
			zap.String("identity", identity), zap.Error(err))
	}
	if !admitted {
		s.logger.Info("rate limit exceeded", zap.String("identity", identity))
		return Pitch{}, ErrRateLimited
	}

	system, user := s.prompts.Render(app, niche)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.runner.Run(callCtx, s.model, backend.Request{
		Messages: []backend.Message{
			{Role: backend.RoleSystem, Content: system},
			{Role: backend.RoleUser, Content: user},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	latency := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The deadline maps to the fallback pitch, not an error.
			s.logger.Warn("backend timed out, serving fallback",
				zap.String("app", app), zap.String("niche", niche),
				zap.Duration("timeout", s.timeout))
			s.record(usage.OutcomeFallbackTimeout, latency)
			p := Pitch{Summary: FallbackSummary(app, niche)}
			if req.WantsQuip {
				p.Quip = FallbackQuip(app, niche)
			}
			return p, nil
		}
		if errors.Is(err, context.Canceled) {
			// The caller went away; nothing to serve.
			return Pitch{}, err
		}
		s.logger.Error("backend call failed",
			zap.String("provider", string(s.runner.Provider())), zap.Error(err))
		s.record(usage.OutcomeBackendError, latency)
		return Pitch{}, &BackendError{Provider: s.runner.Provider(), Err: err}
	}

	result := extract.Extract(raw)
	summary := strings.TrimSpace(result.Summary)
	quip := strings.TrimSpace(result.Quip)

	fellBack := false
	if summary == "" {
		summary = FallbackSummary(app, niche)
		fellBack = true
	}
	if quip == "" && req.WantsQuip {
		quip = FallbackQuip(app, niche)
		fellBack = true
	}
	// Last word: an unwanted quip is dropped no matter where it came from.
	if !req.WantsQuip {
		quip = ""
	}

	outcome := usage.OutcomeOK
	if fellBack {
		outcome = usage.OutcomeFallbackFields
	}
	s.record(outcome, latency)
	s.logger.Debug("pitch generated",
		zap.String("method", string(result.Method)),
		zap.Bool("fallback", fellBack),
		zap.Duration("latency", latency))

	return Pitch{Summary: summary, Quip: quip}, nil
}

func (s *Service) record(outcome usage.Outcome, latency time.Duration) {
	if s.tracker == nil {
		return
	}
	s.tracker.Record(usage.Event{
		Timestamp: time.Now(),
		Provider:  string(s.runner.Provider()),
		Model:     s.model,
		Outcome:   outcome,
		Latency:   latency,
	})
}
