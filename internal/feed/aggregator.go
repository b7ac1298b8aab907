package feed

import (
	"context"
	"log/slog"
	"sync"

	"newsdesk/internal/model"

	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkers is the tuned fan-out width for feed fetching.
const DefaultWorkers = 16

// FeedFetcher fetches a single feed. *Fetcher implements it.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL, category string) FetchResult
}

// Aggregator fans a FeedFetcher out over many feeds with bounded concurrency.
type Aggregator struct {
	fetcher FeedFetcher
	workers int
}

func NewAggregator(fetcher FeedFetcher, workers int) *Aggregator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Aggregator{fetcher: fetcher, workers: workers}
}

// FetchAll fetches every feed concurrently and returns the deduplicated union of their
// articles in completion order. Failed feeds contribute nothing.
func (a *Aggregator) FetchAll(ctx context.Context, feedURLs []string, category string) AggregateResult {
	var (
		mu  sync.Mutex
		res AggregateResult
		all []model.Article
	)
	p := pool.New().WithMaxGoroutines(a.workers)
	for _, u := range feedURLs {
		u := u
		p.Go(func() {
			fr := a.fetcher.Fetch(ctx, u, category)
			mu.Lock()
			defer mu.Unlock()
			if fr.Err != nil {
				res.Failed++
				return
			}
			res.Succeeded++
			all = append(all, fr.Articles...)
		})
	}
	p.Wait()

	res.Articles = Dedup(all)
	slog.Info("feed: aggregated", "feeds", len(feedURLs), "succeeded", res.Succeeded,
		"failed", res.Failed, "articles", len(res.Articles), "category", category)
	return res
}
