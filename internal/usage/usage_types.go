package usage

import "time"

// Outcome classifies how a generation attempt resolved.
type Outcome string

const (
	// OutcomeOK: the backend answered and both requested fields
	// survived extraction.
	OutcomeOK Outcome = "ok"
	// OutcomeFallbackTimeout: the backend call hit its deadline and the
	// whole pitch came from the fallback templates.
	OutcomeFallbackTimeout Outcome = "fallback_timeout"
	// OutcomeFallbackFields: the backend answered but at least one
	// field had to be filled from a fallback template.
	OutcomeFallbackFields Outcome = "fallback_fields"
	// OutcomeBackendError: the backend failed outright (non-timeout).
	OutcomeBackendError Outcome = "backend_error"
)

// Data represents the root structure stored in persistence.
type Data struct {
	Version   string `json:"version"`
	Aggregate Stats  `json:"aggregate"`
}

// Event represents a single completed generation attempt.
type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Outcome   Outcome       `json:"outcome"`
	Latency   time.Duration `json:"latency"`
}

// Stats holds counters broken down by various dimensions.
type Stats struct {
	Total      Counts            `json:"total"`
	ByProvider map[string]Counts `json:"by_provider"`
	ByModel    map[string]Counts `json:"by_model"`
	ByOutcome  map[string]Counts `json:"by_outcome"`
}

// Counts holds a request tally plus a latency sum for averaging.
type Counts struct {
	Requests  int64 `json:"requests"`
	LatencyMS int64 `json:"latency_ms"`
}

func (c *Counts) Add(latency time.Duration) {
	c.Requests++
	c.LatencyMS += latency.Milliseconds()
}

// AvgLatencyMS returns the mean latency in milliseconds, 0 when empty.
func (c Counts) AvgLatencyMS() int64 {
	if c.Requests == 0 {
		return 0
	}
	return c.LatencyMS / c.Requests
}
