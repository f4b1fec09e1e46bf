package backend

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacedRunner spaces outbound calls by a minimum interval. Some
// providers throttle aggressively on burst traffic; pacing trades a
// short wait for fewer hard 429s. This bounds the outbound call rate
// and is unrelated to the per-client admission limiter.
type pacedRunner struct {
	inner   Runner
	limiter *rate.Limiter
}

// Ensure pacedRunner implements Runner
var _ Runner = (*pacedRunner)(nil)

// WithPacing wraps a Runner so successive calls are at least interval
// apart. A non-positive interval returns the Runner unchanged.
func WithPacing(inner Runner, interval time.Duration) Runner {
	if interval <= 0 {
		return inner
	}
	return &pacedRunner{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Run waits for the pacing slot, then delegates. A context that expires
// while waiting surfaces the context error, so the caller's timeout
// semantics are preserved.
func (p *pacedRunner) Run(ctx context.Context, model string, req Request) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.inner.Run(ctx, model, req)
}

// Provider delegates to the wrapped Runner.
func (p *pacedRunner) Provider() Provider {
	return p.inner.Provider()
}
