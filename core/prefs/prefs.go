// Package prefs defines where small, durable UI preferences (eg. the sidebar open flag) are kept.
package prefs

import (
	"sync"
	"time"

	"github.com/volatiletech/null/v8"
)

// Store is a key/value preference store with per-entry time to live.
// Implementations: browser cookies, a local SQLite file, memory (tests & non-browser renders).
type Store interface {
	// Get returns the stored value, or an invalid null.String when the key is unknown or expired.
	Get(key string) null.String
	// Set stores value under key for ttl. A ttl <= 0 keeps the entry until overwritten.
	Set(key, value string, ttl time.Duration) error
}

var NowFunc = time.Now // mockable

type memEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-memory Store, safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry)}
}

func (m *Memory) Get(key string) null.String {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ent, ok := m.entries[key]
	if !ok {
		return null.String{}
	}
	if !ent.expiresAt.IsZero() && !NowFunc().Before(ent.expiresAt) {
		return null.String{}
	}
	return null.StringFrom(ent.value)
}

func (m *Memory) Set(key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent := memEntry{value: value}
	if ttl > 0 {
		ent.expiresAt = NowFunc().Add(ttl)
	}
	m.entries[key] = ent
	return nil
}
