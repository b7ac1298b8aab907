package trending

import (
	"context"
	"log/slog"

	"newsdesk/internal/feed"
	"newsdesk/internal/model"

	"github.com/sourcegraph/conc"
)

// Aggregator fetches and deduplicates a set of feeds. *feed.Aggregator implements it.
type Aggregator interface {
	FetchAll(ctx context.Context, feedURLs []string, category string) feed.AggregateResult
}

// FeedSource resolves the feeds configured for one (language, category).
type FeedSource interface {
	CategoryFeeds(lang, category string) []string
}

// Annotator overlays sentiment on a batch of articles without changing its order.
type Annotator interface {
	AnnotateAll(ctx context.Context, articles []model.Article) []model.Article
}

type Options struct {
	Groups           [][]string
	FeedsPerCategory int
	TopPerCategory   int
}

// Composer builds the cross-category trending list. Category groups are fetched
// concurrently; categories inside a group are fetched one after another.
type Composer struct {
	agg       Aggregator
	feeds     FeedSource
	annotator Annotator
	opts      Options
}

type Result struct {
	Articles   []model.Article
	Categories map[string]int
	// Fetched is the number of articles gathered before the combine step.
	Fetched int
}

func NewComposer(agg Aggregator, feeds FeedSource, annotator Annotator, opts Options) *Composer {
	if opts.FeedsPerCategory <= 0 {
		opts.FeedsPerCategory = 5
	}
	if opts.TopPerCategory <= 0 {
		opts.TopPerCategory = 10
	}
	return &Composer{agg: agg, feeds: feeds, annotator: annotator, opts: opts}
}

// Compose returns at most limit articles, newest first, with sentiment where available.
// Groups or categories whose feeds all fail contribute nothing.
func (c *Composer) Compose(ctx context.Context, lang string, limit int) Result {
	perGroup := make([][]model.Article, len(c.opts.Groups))
	var wg conc.WaitGroup
	for i, group := range c.opts.Groups {
		i, group := i, group
		wg.Go(func() {
			perGroup[i] = c.conquer(ctx, lang, group)
		})
	}
	wg.Wait()

	// combine in group order so output never depends on completion order
	var merged []model.Article
	for _, batch := range perGroup {
		merged = append(merged, batch...)
	}
	fetched := len(merged)
	merged = feed.Dedup(merged)
	feed.SortByRecency(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	if c.annotator != nil && len(merged) > 0 {
		merged = c.annotator.AnnotateAll(ctx, merged)
	}

	counts := make(map[string]int)
	for _, group := range c.opts.Groups {
		for _, cat := range group {
			counts[cat] = 0
		}
	}
	for _, a := range merged {
		counts[a.Category]++
	}
	slog.Info("trending: composed", "lang", lang, "fetched", fetched, "returned", len(merged))
	return Result{Articles: merged, Categories: counts, Fetched: fetched}
}

func (c *Composer) conquer(ctx context.Context, lang string, group []string) []model.Article {
	var out []model.Article
	for _, cat := range group {
		if ctx.Err() != nil {
			return out
		}
		urls := c.feeds.CategoryFeeds(lang, cat)
		if len(urls) == 0 {
			continue
		}
		if len(urls) > c.opts.FeedsPerCategory {
			urls = urls[:c.opts.FeedsPerCategory]
		}
		res := c.agg.FetchAll(ctx, urls, cat)
		articles := res.Articles
		for i := range articles {
			articles[i].Category = cat
		}
		feed.SortByRecency(articles)
		if len(articles) > c.opts.TopPerCategory {
			articles = articles[:c.opts.TopPerCategory]
		}
		if len(articles) == 0 {
			slog.Warn("trending: category empty", "lang", lang, "category", cat, "failed_feeds", res.Failed)
		}
		out = append(out, articles...)
	}
	return out
}
