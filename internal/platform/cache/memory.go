package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	values    []string
	expiresAt time.Time
}

// Memory is an in-process expiring store. It is safe for concurrent use; the last
// write to a key wins.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]string, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		// Only drop the entry if nobody replaced it in the meantime.
		if cur, ok := m.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return slices.Clone(e.values), true
}

func (m *Memory) Set(_ context.Context, key string, values []string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	stored := slices.Clone(values)
	if stored == nil {
		stored = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{values: stored, expiresAt: m.now().Add(ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
