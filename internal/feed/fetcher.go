package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/model"

	"github.com/mmcdole/gofeed"
)

const maxFeedBytes = 5 << 20

// Fetcher retrieves and parses a single feed URL with bounded retries.
type Fetcher struct {
	client     *http.Client
	parser     *gofeed.Parser
	names      SourceNamer
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	now        func() time.Time
}

// FetcherConfig tunes a Fetcher. Zero values get sensible defaults.
type FetcherConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration // per attempt
	UserAgent  string
	Client     *http.Client
}

func NewFetcher(cfg FetcherConfig, names SourceNamer) *Fetcher {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "newsdesk/1.0"
	}
	client := cfg.Client
	if client == nil {
		transport := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		client = &http.Client{Transport: transport, CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return nil
		}}
	}
	return &Fetcher{
		client:     client,
		parser:     gofeed.NewParser(),
		names:      names,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		now:        time.Now,
	}
}

// Fetch retrieves feedURL, retrying up to maxRetries times after the first attempt.
// It never returns an error to the caller: failures are reported in FetchResult.Err
// alongside an empty article list.
func (f *Fetcher) Fetch(ctx context.Context, feedURL, category string) FetchResult {
	res := FetchResult{URL: feedURL}
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("feed: retrying", "url", feedURL, "attempt", attempt+1, "of", f.maxRetries+1)
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				return res
			case <-time.After(f.retryDelay):
			}
		}
		res.Attempts++
		articles, err := f.fetchOnce(ctx, feedURL, category)
		if err == nil {
			res.Articles = articles
			res.Err = nil
			slog.Debug("feed: fetched", "url", feedURL, "articles", len(articles))
			return res
		}
		res.Err = err
		if ctx.Err() != nil {
			break
		}
	}
	slog.Error("feed: giving up", "url", feedURL, "attempts", res.Attempts, "error", res.Err)
	return res
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedURL, category string) ([]model.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed %s: status %d", feedURL, resp.StatusCode)
	}
	parsed, err := f.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("parse feed: empty document")
	}
	return f.convert(parsed, feedURL, category), nil
}

func (f *Fetcher) convert(parsed *gofeed.Feed, feedURL, category string) []model.Article {
	sourceName := f.sourceName(parsed, feedURL)
	now := f.now().UTC()
	articles := make([]model.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		pub := now
		if item.PublishedParsed != nil {
			pub = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			pub = item.UpdatedParsed.UTC()
		}
		raw := item.Description
		if raw == "" {
			raw = item.Content
		}
		a := model.Article{
			Title:     cleanText(item.Title),
			Summary:   cleanText(raw),
			Source:    model.Source{Name: sourceName, URL: feedURL},
			Published: pub,
			Link:      strings.TrimSpace(item.Link),
			ImageURL:  itemImage(item, raw),
			Category:  category,
		}
		a.ID = articleID(strings.TrimSpace(item.GUID), a.Link, a.Title)
		if a.ID == "" {
			continue
		}
		articles = append(articles, a)
	}
	return articles
}

func (f *Fetcher) sourceName(parsed *gofeed.Feed, feedURL string) string {
	host := config.Host(feedURL)
	if f.names != nil {
		if name := f.names.SourceName(feedURL); name != "" && name != host {
			return name
		}
	}
	if t := strings.TrimSpace(parsed.Title); t != "" {
		return cleanText(t)
	}
	return host
}

// articleID prefers the feed GUID, then the link, then the title.
func articleID(guid, link, title string) string {
	switch {
	case guid != "":
		return guid
	case link != "":
		return link
	default:
		return title
	}
}

func itemImage(item *gofeed.Item, raw string) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return firstImage(raw)
}
