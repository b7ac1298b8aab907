package storage

import (
	"context"
	"time"

	"newsdesk/internal/model"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries bounds the in-memory cache.
const DefaultMaxEntries = 1024

// MemoryStore is a process-local, size-bounded LRU whose entries expire after ttl.
// Expiry is checked on read; stale entries are dropped when they are seen.
type MemoryStore struct {
	cache *lru.Cache[string, Entry]
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(maxEntries int, ttl time.Duration) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: c, ttl: ttl, now: time.Now}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (model.Payload, bool, error) {
	e, ok := m.cache.Get(key)
	if !ok {
		return model.Payload{}, false, nil
	}
	if !e.Fresh(m.now(), m.ttl) {
		m.cache.Remove(key)
		return model.Payload{}, false, nil
	}
	return e.Payload, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, payload model.Payload) error {
	m.cache.Add(key, Entry{Key: key, Payload: payload, Timestamp: m.now()})
	return nil
}

// Len returns the number of entries currently held, fresh or not.
func (m *MemoryStore) Len() int { return m.cache.Len() }
