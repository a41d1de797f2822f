package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the default number of responses kept in memory.
const DefaultMemorySize = 256

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Memory is an in-process Cache backed by an LRU with per-entry expiry.
// Safe for concurrent use.
type Memory struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an in-memory cache holding at most size entries.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, _ := lru.New[string, memoryEntry](size)
	return &Memory{entries: entries, now: time.Now}
}

// Get returns the stored payload, dropping it when expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return entry.payload, true, nil
}

func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries.Add(key, entry)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.entries.Remove(key)
	}
	return nil
}

// Close purges all entries.
func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}
