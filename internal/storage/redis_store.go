package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"newsdesk/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares the result cache between processes. Entries carry their creation
// time so freshness is checked the same way as in memory; the key TTL only reclaims space.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "newsdesk:cache:", now: time.Now}
}

func (s *RedisStore) entryKey(key string) string {
	return s.prefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (model.Payload, bool, error) {
	b, err := s.rdb.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Payload{}, false, nil
	}
	if err != nil {
		return model.Payload{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		// unreadable entries are treated as absent and overwritten on the next put
		return model.Payload{}, false, nil
	}
	if !e.Fresh(s.now(), s.ttl) {
		return model.Payload{}, false, nil
	}
	return e.Payload, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, payload model.Payload) error {
	b, err := json.Marshal(Entry{Key: key, Payload: payload, Timestamp: s.now()})
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.entryKey(key), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
