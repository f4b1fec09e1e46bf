package store

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a process-local Counter for tests, the one-shot CLI,
// and single-instance deployments. Expired entries are reaped lazily on
// read, mirroring the advisory expiry of the external stores.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value    string
	deadline time.Time // zero = no expiry
}

// Ensure MemoryCounter implements Counter
var _ Counter = (*MemoryCounter)(nil)

// NewMemoryCounter creates an empty in-memory counter store.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key unless the key is absent or expired.
func (s *MemoryCounter) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.deadline.IsZero() && s.now().After(entry.deadline) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Put stores a value; expiry == 0 carries over any existing deadline.
func (s *MemoryCounter) Put(_ context.Context, key, value string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if expiry > 0 {
		entry.deadline = s.now().Add(expiry)
	} else if existing, ok := s.entries[key]; ok {
		entry.deadline = existing.deadline
	}
	s.entries[key] = entry
	return nil
}

// Kind identifies this store on the debug surface.
func (s *MemoryCounter) Kind() string {
	return "memory"
}

// Len reports the number of live entries (expired-but-unreaped included).
func (s *MemoryCounter) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SetClock overrides the time source. Tests only.
func (s *MemoryCounter) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
