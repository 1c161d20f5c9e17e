package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hireproof/hireproof/internal/types"
)

// Memory is an in-process Cache. It is safe for concurrent use and is the
// default backend when no Redis address is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	// now is injectable for expiry tests.
	now func() time.Time
}

type memoryEntry struct {
	result    *types.AnalysisResult
	expiresAt time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, fingerprint string) (*types.AnalysisResult, bool) {
	m.mu.RLock()
	entry, ok := m.entries[fingerprint]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		// Recheck under the write lock; another Put may have refreshed it.
		if cur, ok := m.entries[fingerprint]; ok && m.now().After(cur.expiresAt) {
			delete(m.entries, fingerprint)
		}
		m.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

// Put implements Cache.
func (m *Memory) Put(_ context.Context, fingerprint string, result *types.AnalysisResult, ttl time.Duration) {
	if result == nil || ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[fingerprint] = memoryEntry{
		result:    result,
		expiresAt: m.now().Add(ttl),
	}
	m.mu.Unlock()
}

// Invalidate implements Cache.
func (m *Memory) Invalidate(_ context.Context, fingerprint string) {
	m.mu.Lock()
	delete(m.entries, fingerprint)
	m.mu.Unlock()
}
