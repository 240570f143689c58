package store

import (
	"context"
	"sync"
	"time"

	"github.com/funvibe/concepts/internal/concepts"
)

// Memory keeps verdicts in process. It is used by tests and by servers that
// want stored verdicts to outlive engine reloads.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	verdict concepts.Verdict
	stored  time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (concepts.Verdict, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return concepts.Verdict{}, false, nil
	}
	if expired(e.stored, m.ttl, m.now()) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.stored.Equal(e.stored) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return concepts.Verdict{}, false, nil
	}
	return e.verdict, true, nil
}

func (m *Memory) Put(_ context.Context, key string, v concepts.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{verdict: v, stored: m.now()}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }

func expired(stored time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(stored) >= ttl
}
