// Package ratelimit bounds per-client load on the generative backend
// with a fixed-window counter held in the external store.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/SteveDakota/xfory/internal/store"
)

// Defaults for the admission window.
const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxRequests = 30
	DefaultExpiry      = 65 * time.Second
	DefaultKeyPrefix   = "xfory:rl:"
)

// Config for creating a fixed-window limiter.
type Config struct {
	Window      time.Duration // fixed window size
	MaxRequests int           // admissions allowed per identity per window
	Expiry      time.Duration // counter TTL, slightly longer than the window
	KeyPrefix   string
}

// FixedWindow admits or denies requests per client identity per window.
//
// This is a best-effort limiter, not an exact one: the read-increment-
// write sequence below is not atomic against the external store, so
// concurrent requests for the same identity may race and push the true
// admitted count past the ceiling. That approximation is accepted and
// relied upon being cheap — one read and one write per request — rather
// than exact.
type FixedWindow struct {
	counter store.Counter
	window  time.Duration
	limit   int
	expiry  time.Duration
	prefix  string
	now     func() time.Time
}

// NewFixedWindow creates a limiter over the given counter store.
func NewFixedWindow(counter store.Counter, config Config) *FixedWindow {
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultMaxRequests
	}
	if config.Expiry <= 0 {
		config.Expiry = DefaultExpiry
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultKeyPrefix
	}

	return &FixedWindow{
		counter: counter,
		window:  config.Window,
		limit:   config.MaxRequests,
		expiry:  config.Expiry,
		prefix:  config.KeyPrefix,
		now:     time.Now,
	}
}

// Admit decides whether a request from identity enters the current
// window. Admission performs exactly one store read and one store write
// regardless of the outcome, so the counter reflects denied attempts
// too.
//
// A store failure fails open: the request is admitted and the error is
// returned so the caller can log it. Admission trouble should never look
// like a client error.
func (l *FixedWindow) Admit(ctx context.Context, identity string) (bool, error) {
	key := l.windowKey(identity, l.now())

	raw, ok, err := l.counter.Get(ctx, key)
	if err != nil {
		return true, err
	}

	count := 0
	if ok {
		// A malformed stored value restarts the window count.
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			count = n
		}
	}
	count++

	// The TTL is armed on the window's first write only; the store keeps
	// it in place across later writes, so the key self-cleans shortly
	// after the window closes.
	var expiry time.Duration
	if count == 1 {
		expiry = l.expiry
	}
	if err := l.counter.Put(ctx, key, strconv.Itoa(count), expiry); err != nil {
		return true, err
	}

	return count <= l.limit, nil
}

// windowKey buckets wall-clock time into fixed windows per identity.
func (l *FixedWindow) windowKey(identity string, now time.Time) string {
	bucket := now.Unix() / int64(l.window/time.Second)
	return l.prefix + identity + ":" + strconv.FormatInt(bucket, 10)
}

// Limit returns the per-window admission ceiling.
func (l *FixedWindow) Limit() int {
	return l.limit
}

// Window returns the window duration.
func (l *FixedWindow) Window() time.Duration {
	return l.window
}

// SetClock overrides the time source. Tests only.
func (l *FixedWindow) SetClock(now func() time.Time) {
	l.now = now
}
