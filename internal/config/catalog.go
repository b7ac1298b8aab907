package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed feeds.yaml
var defaultCatalog []byte

// Catalog is the static feed configuration: language -> category -> feed URLs,
// display names per host, and the trending category groups. Immutable after load.
type Catalog struct {
	Groups [][]string                     `yaml:"category_groups"`
	Names  map[string]string              `yaml:"source_names"`
	Feeds  map[string]map[string][]string `yaml:"feeds"`
}

// LoadCatalog reads a catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Feeds) == 0 {
		return nil, fmt.Errorf("parse catalog: no feeds configured")
	}
	for i, g := range c.Groups {
		if len(g) == 0 {
			return nil, fmt.Errorf("parse catalog: category group %d is empty", i)
		}
	}
	// normalize keys so lookups are case-insensitive
	feeds := make(map[string]map[string][]string, len(c.Feeds))
	for lang, cats := range c.Feeds {
		m := make(map[string][]string, len(cats))
		for cat, urls := range cats {
			m[strings.ToLower(strings.TrimSpace(cat))] = urls
		}
		feeds[strings.ToLower(strings.TrimSpace(lang))] = m
	}
	c.Feeds = feeds
	for i := range c.Groups {
		for j := range c.Groups[i] {
			c.Groups[i][j] = strings.ToLower(strings.TrimSpace(c.Groups[i][j]))
		}
	}
	return &c, nil
}

// Languages returns the configured language codes in sorted order.
func (c *Catalog) Languages() []string {
	langs := lo.Keys(c.Feeds)
	sort.Strings(langs)
	return langs
}

// HasLanguage reports whether lang has any feeds configured.
func (c *Catalog) HasLanguage(lang string) bool {
	_, ok := c.Feeds[strings.ToLower(lang)]
	return ok
}

// Categories returns the categories configured for lang, sorted.
func (c *Catalog) Categories(lang string) []string {
	cats := lo.Keys(c.Feeds[strings.ToLower(lang)])
	sort.Strings(cats)
	return cats
}

// CategoryFeeds returns the feeds for exactly (lang, category), without fallback.
func (c *Catalog) CategoryFeeds(lang, category string) []string {
	return c.Feeds[strings.ToLower(lang)][strings.ToLower(category)]
}

// LanguageFeeds returns feeds for lang restricted to category. An empty category, or a
// category with no feeds for this language, yields every feed of the language.
func (c *Catalog) LanguageFeeds(lang, category string) []string {
	if category != "" {
		if urls := c.CategoryFeeds(lang, category); len(urls) > 0 {
			return urls
		}
	}
	var all []string
	for _, cat := range c.Categories(lang) {
		all = append(all, c.CategoryFeeds(lang, cat)...)
	}
	return lo.Uniq(all)
}

// SourceName resolves a human-friendly name for a feed URL. Exact host matches win,
// then the longest configured key contained in the URL, then the bare host.
func (c *Catalog) SourceName(feedURL string) string {
	host := Host(feedURL)
	if name, ok := c.Names[host]; ok {
		return name
	}
	if name, ok := c.Names[strings.TrimPrefix(host, "www.")]; ok {
		return name
	}
	keys := lo.Keys(c.Names)
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		if strings.Contains(feedURL, k) {
			return c.Names[k]
		}
	}
	return host
}

// Host returns the host component of a URL, or the input when it cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
