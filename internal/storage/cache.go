package storage

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"newsdesk/internal/model"

	"github.com/samber/lo"
)

// DefaultTTL is how long a cached payload stays fresh.
const DefaultTTL = 1800 * time.Second

// AllCategories stands in for "no category" in cache keys.
const AllCategories = "all"

const queryPrefixRunes = 30

// Entry is a memoized payload and the time it was computed.
type Entry struct {
	Key       string        `json:"key"`
	Payload   model.Payload `json:"payload"`
	Timestamp time.Time     `json:"timestamp"`
}

// Fresh reports whether the entry is still valid at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

// Store memoizes payloads by key. Expired entries are reported as misses. An error means
// the store itself is unusable, not that the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (model.Payload, bool, error)
	Put(ctx context.Context, key string, payload model.Payload) error
}

// Key builds the cache key for a request. Queries are lowercased and cut to their first
// 30 characters; preferred sources are compared case-insensitively in any order.
func Key(namespace, lang, category, query string, sources []string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = AllCategories
	}
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	if len(q) > queryPrefixRunes {
		q = q[:queryPrefixRunes]
	}
	srcs := lo.Uniq(lo.FilterMap(sources, func(s string, _ int) (string, bool) {
		s = strings.ToLower(strings.TrimSpace(s))
		return s, s != ""
	}))
	sort.Strings(srcs)

	// every field is length-prefixed so separators inside values cannot collide
	var b strings.Builder
	for _, f := range []string{namespace, strings.ToLower(strings.TrimSpace(lang)), category, string(q)} {
		writeField(&b, f)
	}
	b.WriteString(strconv.Itoa(len(srcs)))
	for _, src := range srcs {
		b.WriteByte('|')
		writeField(&b, src)
	}
	return b.String()
}

func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
	b.WriteByte('|')
}
