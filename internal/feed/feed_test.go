package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"newsdesk/internal/model"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Sample Times</title>
	<link>http://example.com/</link>
	<description>Sample feed</description>
	<item>
		<title>Cricket: India win the series</title>
		<link>http://example.com/cricket-series</link>
		<guid>cricket-series-guid</guid>
		<pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
		<description><![CDATA[<p>A <b>thrilling</b> finish</p><img src="http://example.com/img.jpg"/>]]></description>
	</item>
	<item>
		<title>Markets rally</title>
		<link>http://example.com/markets</link>
		<description>Stocks closed higher.</description>
	</item>
</channel>
</rss>`

type fakeNamer map[string]string

func (n fakeNamer) SourceName(feedURL string) string { return n[feedURL] }

func testFetcher(retries int) *Fetcher {
	return NewFetcher(FetcherConfig{MaxRetries: retries, RetryDelay: 5 * time.Millisecond, Timeout: 2 * time.Second}, nil)
}

func TestFetchParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	f := testFetcher(2)
	fixed := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	res := f.Fetch(context.Background(), srv.URL, "sports")
	if res.Err != nil {
		t.Fatalf("Fetch error: %v", res.Err)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if len(res.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(res.Articles))
	}
	first := res.Articles[0]
	if first.ID != "cricket-series-guid" {
		t.Errorf("ID = %q, want guid", first.ID)
	}
	if first.Summary != "A thrilling finish" {
		t.Errorf("Summary = %q, want HTML stripped", first.Summary)
	}
	if first.ImageURL != "http://example.com/img.jpg" {
		t.Errorf("ImageURL = %q", first.ImageURL)
	}
	if first.Category != "sports" {
		t.Errorf("Category = %q, want sports", first.Category)
	}
	if first.Source.Name != "Sample Times" || first.Source.URL != srv.URL {
		t.Errorf("Source = %+v", first.Source)
	}
	second := res.Articles[1]
	if second.ID != "http://example.com/markets" {
		t.Errorf("ID without guid should fall back to link, got %q", second.ID)
	}
	if !second.Published.Equal(fixed) {
		t.Errorf("missing pubDate should default to now, got %v", second.Published)
	}
}

func TestFetchUsesConfiguredSourceName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: time.Second}, fakeNamer{srv.URL: "Configured Name"})
	res := f.Fetch(context.Background(), srv.URL, "")
	if len(res.Articles) == 0 {
		t.Fatalf("expected articles, err=%v", res.Err)
	}
	if got := res.Articles[0].Source.Name; got != "Configured Name" {
		t.Errorf("source name = %q, want configured name", got)
	}
}

func TestFetchRetriesThenReturnsEmpty(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	const retries = 2
	res := testFetcher(retries).Fetch(context.Background(), srv.URL, "")
	if res.Err == nil {
		t.Fatalf("expected error in result")
	}
	if len(res.Articles) != 0 {
		t.Errorf("expected no articles, got %d", len(res.Articles))
	}
	if got := atomic.LoadInt32(&hits); got != retries+1 {
		t.Errorf("server hit %d times, want %d (1 attempt + %d retries)", got, retries+1, retries)
	}
	if res.Attempts != retries+1 {
		t.Errorf("attempts = %d, want %d", res.Attempts, retries+1)
	}
}

func TestFetchMalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "This is not XML content at all.")
	}))
	defer srv.Close()

	res := testFetcher(0).Fetch(context.Background(), srv.URL, "")
	if res.Err == nil || len(res.Articles) != 0 {
		t.Fatalf("expected parse failure with no articles, got err=%v articles=%d", res.Err, len(res.Articles))
	}
}

func TestAggregatorDeduplicatesByLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer srv.Close()

	agg := NewAggregator(testFetcher(0), 4)
	// Same feed twice: every entry appears twice with the same link.
	res := agg.FetchAll(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"}, "")
	if res.Succeeded != 2 || res.Failed != 0 {
		t.Fatalf("succeeded=%d failed=%d", res.Succeeded, res.Failed)
	}
	count := 0
	for _, a := range res.Articles {
		if a.Link == "http://example.com/cricket-series" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("found %d articles with the duplicated link, want 1", count)
	}
	if len(res.Articles) != 2 {
		t.Errorf("got %d articles, want 2", len(res.Articles))
	}
}

func TestAggregatorIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	res := NewAggregator(testFetcher(1), 0).FetchAll(context.Background(), []string{good.URL, bad.URL}, "")
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 1/1", res.Succeeded, res.Failed)
	}
	if len(res.Articles) != 2 {
		t.Errorf("got %d articles, want 2", len(res.Articles))
	}
}

func TestDedup(t *testing.T) {
	src := model.Source{Name: "Wire"}
	tests := []struct {
		name string
		in   []model.Article
		want int
	}{
		{"same link", []model.Article{{Title: "A", Link: "http://x/1", Source: src}, {Title: "B", Link: "http://x/1/", Source: src}}, 1},
		{"same title and source", []model.Article{{Title: "Big News!", Source: src}, {Title: "big   news", Source: src}}, 1},
		{"same title other source", []model.Article{{Title: "Big News", Source: src}, {Title: "Big News", Source: model.Source{Name: "Other"}}}, 2},
		{"distinct", []model.Article{{Title: "A", Link: "http://x/1", Source: src}, {Title: "B", Link: "http://x/2", Source: src}}, 2},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		got := Dedup(tt.in)
		if len(got) != tt.want {
			t.Errorf("%s: got %d articles, want %d", tt.name, len(got), tt.want)
		}
	}
}

func TestDedupKeepsIDsUnique(t *testing.T) {
	a := model.Source{Name: "A", URL: "http://a.example/rss"}
	b := model.Source{Name: "B", URL: "http://b.example/rss"}
	in := []model.Article{
		{ID: "1", Title: "First story", Link: "http://a.example/1", Source: a},
		{ID: "1", Title: "Second story", Link: "http://b.example/2", Source: b},
		{ID: "Same headline", Title: "Same headline", Source: a},
		{ID: "Same headline", Title: "Same headline", Source: b},
		{ID: "", Title: "No id one", Source: a},
		{ID: "", Title: "No id two", Source: a},
	}
	out := Dedup(in)
	if len(out) != len(in) {
		t.Fatalf("got %d articles, want %d (none are duplicates)", len(out), len(in))
	}
	ids := map[string]int{}
	for _, art := range out {
		ids[art.ID]++
	}
	for id, n := range ids {
		if n > 1 {
			t.Errorf("id %q appears %d times", id, n)
		}
	}
	if out[0].ID != "1" || out[1].ID != "http://b.example/rss#1" {
		t.Errorf("first-seen id should stay, later one qualified: %q %q", out[0].ID, out[1].ID)
	}
	if out[3].ID != "http://b.example/rss#Same headline" {
		t.Errorf("qualified id = %q", out[3].ID)
	}
	if in[1].ID != "1" {
		t.Errorf("input was modified")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"No tags here", "No tags here"},
		{"  spaced   out  ", "spaced out"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanText(tt.input); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
