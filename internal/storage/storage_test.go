package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"newsdesk/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func payload(n int) model.Payload {
	return model.Payload{TotalFound: n, Articles: []model.Article{{ID: fmt.Sprint(n), Title: "t"}}}
}

func TestMemoryStoreFreshness(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewMemoryStore(10, DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	m.now = func() time.Time { return t0 }
	key := Key("search", "en", "", "cricket", nil)
	if err := m.Put(ctx, key, payload(7)); err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return t0.Add(1799 * time.Second) }
	got, ok, err := m.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit at t0+1799s, ok=%v err=%v", ok, err)
	}
	if got.TotalFound != 7 {
		t.Fatalf("payload=%+v", got)
	}

	m.now = func() time.Time { return t0.Add(1801 * time.Second) }
	if _, ok, _ := m.Get(ctx, key); ok {
		t.Fatalf("expected miss at t0+1801s")
	}
	if m.Len() != 0 {
		t.Fatalf("stale entry should be dropped on read")
	}
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemoryStore(2, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	_ = m.Put(ctx, "a", payload(1))
	_ = m.Put(ctx, "b", payload(2))
	if _, ok, _ := m.Get(ctx, "a"); !ok {
		t.Fatal("a should be present")
	}
	_ = m.Put(ctx, "c", payload(3))
	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Fatal("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok, _ := m.Get(ctx, k); !ok {
			t.Fatalf("%s should be present", k)
		}
	}
}

func TestKey(t *testing.T) {
	long := "india versus australia third test match day two highlights"
	cases := []struct {
		name string
		a, b string
		same bool
	}{
		{"source order", Key("search", "en", "sports", "ipl", []string{"NDTV", "The Hindu"}), Key("search", "en", "sports", "ipl", []string{"the hindu", "ndtv"}), true},
		{"query prefix", Key("search", "en", "", long, nil), Key("search", "en", "", long[:30]+" something else", nil), true},
		{"query case", Key("search", "en", "", "Cricket", nil), Key("search", "en", "", "cricket ", nil), true},
		{"empty category is all", Key("search", "en", "", "q", nil), Key("search", "en", "all", "q", nil), true},
		{"language differs", Key("search", "en", "", "q", nil), Key("search", "hi", "", "q", nil), false},
		{"category differs", Key("search", "en", "sports", "q", nil), Key("search", "en", "business", "q", nil), false},
		{"namespace differs", Key("search", "en", "", "", nil), Key("trending", "en", "", "", nil), false},
		{"sources differ", Key("search", "en", "", "q", []string{"a"}), Key("search", "en", "", "q", []string{"b"}), false},
		{"separator in query", Key("search", "en", "", "x|a", []string{"b"}), Key("search", "en", "", "x", []string{"a|b"}), false},
		{"separator in source", Key("search", "en", "", "q", []string{"a|b"}), Key("search", "en", "", "q", []string{"a", "b"}), false},
		{"comma in source", Key("search", "en", "", "q", []string{"a,b"}), Key("search", "en", "", "q", []string{"a", "b"}), false},
		{"field boundary", Key("search", "en", "a", "b", nil), Key("search", "en", "a|b", "", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if (tc.a == tc.b) != tc.same {
				t.Fatalf("a=%q b=%q same=%v", tc.a, tc.b, tc.same)
			}
		})
	}
}

func TestKeyPrefixCountsCharacters(t *testing.T) {
	q := "क्रिकेट मैच भारत ऑस्ट्रेलिया टेस्ट सीरीज़"
	k1 := Key("search", "hi", "", q, nil)
	k2 := Key("search", "hi", "", string([]rune(q)[:30]), nil)
	if k1 != k2 {
		t.Fatalf("prefix should be cut on characters: %q vs %q", k1, k2)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewRedisStore(rdb, DefaultTTL)
	s.now = func() time.Time { return t0 }

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, "k", payload(3)); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("newsdesk:cache:k"); ttl != DefaultTTL {
		t.Fatalf("key ttl=%v", ttl)
	}

	s.now = func() time.Time { return t0.Add(1799 * time.Second) }
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || got.TotalFound != 3 {
		t.Fatalf("expected hit: %+v ok=%v err=%v", got, ok, err)
	}
	s.now = func() time.Time { return t0.Add(1801 * time.Second) }
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("expected miss after ttl")
	}

	_ = mr.Set("newsdesk:cache:bad", "not json")
	if _, ok, err := s.Get(ctx, "bad"); ok || err != nil {
		t.Fatalf("corrupt entry: ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()
	s := NewRedisStore(rdb, time.Minute)
	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from closed server")
	}
}
