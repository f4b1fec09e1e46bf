// Package usage meters generation outcomes. Counts are advisory: the
// request path never consults them, they only feed the debug surface
// and the stats command.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Tracker manages outcome recording and persistence.
type Tracker struct {
	mu       sync.Mutex
	data     Data
	filePath string
	dirty    bool
}

// NewTracker creates a tracker persisting under workspacePath/.xfory.
func NewTracker(workspacePath string) (*Tracker, error) {
	dir := filepath.Join(workspacePath, ".xfory")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .xfory dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dir, "usage.json"),
		data: Data{
			Version: "1.0",
			Aggregate: Stats{
				ByProvider: make(map[string]Counts),
				ByModel:    make(map[string]Counts),
				ByOutcome:  make(map[string]Counts),
			},
		},
	}

	// A corrupt or missing stats file is not fatal; start fresh.
	_ = t.Load()

	return t, nil
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &t.data); err != nil {
		return err
	}

	// Ensure maps are initialized if file was empty/partial
	if t.data.Aggregate.ByProvider == nil {
		t.data.Aggregate.ByProvider = make(map[string]Counts)
	}
	if t.data.Aggregate.ByModel == nil {
		t.data.Aggregate.ByModel = make(map[string]Counts)
	}
	if t.data.Aggregate.ByOutcome == nil {
		t.data.Aggregate.ByOutcome = make(map[string]Counts)
	}

	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Record folds one event into the aggregates.
func (t *Tracker) Record(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Aggregate.Total.Add(ev.Latency)
	addToMap(t.data.Aggregate.ByProvider, ev.Provider, ev.Latency)
	addToMap(t.data.Aggregate.ByModel, ev.Model, ev.Latency)
	addToMap(t.data.Aggregate.ByOutcome, string(ev.Outcome), ev.Latency)

	// Debounced auto-save
	if !t.dirty {
		t.dirty = true
		time.AfterFunc(5*time.Second, func() {
			t.Save()
			t.mu.Lock()
			t.dirty = false
			t.mu.Unlock()
		})
	}
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyCountsMap(stats.ByProvider)
	stats.ByModel = copyCountsMap(stats.ByModel)
	stats.ByOutcome = copyCountsMap(stats.ByOutcome)
	return stats
}

func copyCountsMap(src map[string]Counts) map[string]Counts {
	if src == nil {
		return nil
	}
	dst := make(map[string]Counts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]Counts, key string, latency time.Duration) {
	if key == "" {
		key = "unknown"
	}
	entry := m[key]
	entry.Add(latency)
	m[key] = entry
}
