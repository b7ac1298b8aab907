package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const testCatalog = `
category_groups:
  - [Sports, business]
source_names:
  thehindu.com: The Hindu
  ndtvnews-top-stories: NDTV News
feeds:
  EN:
    sports:
      - https://www.thehindu.com/sport/feeder/default.rss
      - https://feeds.feedburner.com/ndtvnews-top-stories
    business:
      - https://www.thehindu.com/business/feeder/default.rss
      - https://www.thehindu.com/sport/feeder/default.rss
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	if !c.HasLanguage("en") || !c.HasLanguage("EN") || c.HasLanguage("fr") {
		t.Fatalf("languages=%v", c.Languages())
	}
	if c.Groups[0][0] != "sports" {
		t.Fatalf("groups not normalized: %v", c.Groups)
	}
	if got := c.Categories("en"); len(got) != 2 || got[0] != "business" {
		t.Fatalf("categories=%v", got)
	}
	if got := c.CategoryFeeds("en", "weather"); len(got) != 0 {
		t.Fatalf("unexpected feeds %v", got)
	}
	// unknown category falls back to every feed of the language, without repeats
	if got := c.LanguageFeeds("en", "weather"); len(got) != 3 {
		t.Fatalf("fallback feeds=%v", got)
	}
	if got := c.LanguageFeeds("en", "sports"); len(got) != 2 {
		t.Fatalf("sports feeds=%v", got)
	}
}

func TestSourceName(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		url, want string
	}{
		{"https://www.thehindu.com/sport/feeder/default.rss", "The Hindu"},
		{"https://feeds.feedburner.com/ndtvnews-top-stories", "NDTV News"},
		{"https://example.org/rss", "example.org"},
	}
	for _, tc := range cases {
		if got := c.SourceName(tc.url); got != tc.want {
			t.Errorf("SourceName(%q)=%q want %q", tc.url, got, tc.want)
		}
	}
}

func TestParseCatalogErrors(t *testing.T) {
	cases := map[string]string{
		"no feeds":    "category_groups: [[a]]\n",
		"empty group": "category_groups: [[]]\nfeeds:\n  en:\n    a: [http://x]\n",
		"bad yaml":    "feeds: [",
	}
	for name, doc := range cases {
		if _, err := ParseCatalog([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("embedded catalog: %v", err)
	}
	if len(c.Groups) != 3 || !c.HasLanguage("en") {
		t.Fatalf("embedded catalog groups=%v languages=%v", c.Groups, c.Languages())
	}

	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Languages()) != 1 {
		t.Fatalf("languages=%v", c.Languages())
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFillDefaultsAndDuration(t *testing.T) {
	var c Config
	c.FillDefaults()
	if c.Feeds.Workers != 16 || *c.Feeds.MaxRetries != 2 || c.Cache.MaxEntries != 1024 {
		t.Fatalf("defaults=%+v", c)
	}
	if got := Duration(c.Cache.TTL, time.Minute); got != 1800*time.Second {
		t.Fatalf("ttl=%v", got)
	}
	if got := Duration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("fallback=%v", got)
	}
}

func TestExplicitZeroRetriesSurvivesDefaults(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want int
	}{
		{"explicit zero", "feeds:\n  max_retries: 0\n", 0},
		{"explicit value", "feeds:\n  max_retries: 5\n", 5},
		{"omitted", "feeds:\n  workers: 4\n", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			v.SetConfigType("yaml")
			if err := v.ReadConfig(strings.NewReader(tc.doc)); err != nil {
				t.Fatal(err)
			}
			var c Config
			if err := v.Unmarshal(&c); err != nil {
				t.Fatal(err)
			}
			c.FillDefaults()
			if c.Feeds.MaxRetries == nil || *c.Feeds.MaxRetries != tc.want {
				t.Fatalf("max_retries=%v want %d", c.Feeds.MaxRetries, tc.want)
			}
		})
	}
}
