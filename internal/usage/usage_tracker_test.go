package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTracker_RecordAggregatesAndPersists(t *testing.T) {
	ws := t.TempDir()
	tracker, err := NewTracker(ws)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	// Avoid background autosave during the test (debounce uses AfterFunc).
	tracker.dirty = true

	tracker.Record(Event{
		Timestamp: time.Now(),
		Provider:  "workers",
		Model:     "@cf/meta/llama-3.1-8b-instruct",
		Outcome:   OutcomeOK,
		Latency:   200 * time.Millisecond,
	})
	tracker.Record(Event{
		Timestamp: time.Now(),
		Provider:  "workers",
		Model:     "@cf/meta/llama-3.1-8b-instruct",
		Outcome:   OutcomeFallbackTimeout,
		Latency:   10 * time.Second,
	})

	stats := tracker.Stats()
	if stats.Total.Requests != 2 || stats.Total.LatencyMS != 10200 {
		t.Fatalf("Total=%+v, want requests=2 latency_ms=10200", stats.Total)
	}
	if got := stats.ByProvider["workers"]; got.Requests != 2 {
		t.Fatalf("ByProvider[workers]=%+v, want requests=2", got)
	}
	if got := stats.ByModel["@cf/meta/llama-3.1-8b-instruct"]; got.Requests != 2 {
		t.Fatalf("ByModel=%+v, want requests=2", got)
	}
	if got := stats.ByOutcome["ok"]; got.Requests != 1 || got.LatencyMS != 200 {
		t.Fatalf("ByOutcome[ok]=%+v, want requests=1 latency_ms=200", got)
	}
	if got := stats.ByOutcome["fallback_timeout"]; got.Requests != 1 {
		t.Fatalf("ByOutcome[fallback_timeout]=%+v, want requests=1", got)
	}

	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(ws, ".xfory", "usage.json"))
	if err != nil {
		t.Fatalf("read usage.json: %v", err)
	}
	var persisted Data
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal usage.json: %v", err)
	}
	if persisted.Aggregate.Total.Requests != 2 {
		t.Fatalf("persisted requests=%d, want 2", persisted.Aggregate.Total.Requests)
	}
}

func TestTracker_LoadSurvivesReopen(t *testing.T) {
	ws := t.TempDir()
	tracker, err := NewTracker(ws)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	tracker.dirty = true

	tracker.Record(Event{Provider: "openai", Model: "gpt-4o-mini", Outcome: OutcomeOK, Latency: time.Second})
	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := NewTracker(ws)
	if err != nil {
		t.Fatalf("NewTracker (reopen): %v", err)
	}
	stats := reopened.Stats()
	if stats.Total.Requests != 1 {
		t.Fatalf("reopened requests=%d, want 1", stats.Total.Requests)
	}
	if got := stats.ByProvider["openai"]; got.Requests != 1 {
		t.Fatalf("reopened ByProvider[openai]=%+v, want requests=1", got)
	}
}

func TestTracker_StatsReturnsCopy(t *testing.T) {
	ws := t.TempDir()
	tracker, err := NewTracker(ws)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	tracker.dirty = true

	tracker.Record(Event{Provider: "gemini", Model: "gemini-2.0-flash", Outcome: OutcomeOK, Latency: time.Second})

	stats := tracker.Stats()
	stats.ByProvider["gemini"] = Counts{Requests: 99}

	if got := tracker.Stats().ByProvider["gemini"]; got.Requests != 1 {
		t.Fatalf("mutating the Stats copy leaked into the tracker: %+v", got)
	}
}

func TestCounts_AvgLatency(t *testing.T) {
	var c Counts
	if got := c.AvgLatencyMS(); got != 0 {
		t.Fatalf("empty AvgLatencyMS=%d, want 0", got)
	}
	c.Add(100 * time.Millisecond)
	c.Add(300 * time.Millisecond)
	if got := c.AvgLatencyMS(); got != 200 {
		t.Fatalf("AvgLatencyMS=%d, want 200", got)
	}
}
