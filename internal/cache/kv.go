package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrMiss is returned by KV.Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

// KV is the byte store a cache is layered on.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

var _ KV = (*MemoryKV)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryKV is a process local KV used when no redis is configured.
type MemoryKV struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryKV(clock clockwork.Clock) *MemoryKV {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryKV{
		clock:   clock,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !entry.expiresAt.IsZero() && !m.clock.Now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return entry.value, nil
}

// Set stores value under key. A zero ttl never expires.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.clock.Now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}
