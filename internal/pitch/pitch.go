// Package pitch turns an (app, niche) pair into an "X for Y" startup
// pitch by prompting a generative backend and post-processing whatever
// text comes back. The caller always receives a well-shaped pitch:
// timeouts and unusable completions degrade to deterministic fallback
// templates rather than errors.
package pitch

import (
	"strings"
	"unicode/utf8"
)

// Input caps, in runes, applied after trimming.
const (
	MaxAppLen   = 60
	MaxNicheLen = 80
)

// Request is one generation request. WantsQuip controls whether the
// final pitch carries a quip at all.
type Request struct {
	App       string `json:"app"`
	Niche     string `json:"niche"`
	WantsQuip bool   `json:"wants_quip"`
}

// Pitch is the final result. Summary is always non-empty; Quip is
// non-empty exactly when the request asked for one.
type Pitch struct {
	Summary string `json:"summary"`
	Quip    string `json:"quip"`
}

// sanitize normalizes both input strings: trim, cap at the rune limit,
// trim again in case the cap exposed trailing whitespace. Empty results
// reject the request before any admission or backend work.
func sanitize(app, niche string) (string, string, error) {
	app = clip(strings.TrimSpace(app), MaxAppLen)
	niche = clip(strings.TrimSpace(niche), MaxNicheLen)

	if app == "" {
		return "", "", &ValidationError{Field: "app", Message: "must not be empty"}
	}
	if niche == "" {
		return "", "", &ValidationError{Field: "niche", Message: "must not be empty"}
	}
	return app, niche, nil
}

// clip truncates s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
