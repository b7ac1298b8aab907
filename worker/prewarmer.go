package worker

import (
	"context"
	"log/slog"
	"time"

	"newsdesk/internal/news"
)

// TrendingWarmer recomputes and caches the trending list for a language, replacing any
// entry that is still fresh.
type TrendingWarmer interface {
	RefreshTrending(ctx context.Context, lang string, limit int) (news.TrendingResponse, error)
}

// Prewarmer refreshes the trending cache on an interval so user requests are served
// from cache. Interval must stay below the cache TTL for entries never to lapse.
type Prewarmer struct {
	Service   TrendingWarmer
	Languages []string
	Limit     int
	Interval  time.Duration
}

func (w *Prewarmer) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 15 * time.Minute
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	// initial run
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

// IntervalFor returns interval, shortened when needed so refreshes land before entries
// cached with ttl expire.
func IntervalFor(interval, ttl time.Duration) time.Duration {
	if ttl > 0 && (interval <= 0 || interval >= ttl) {
		return ttl / 2
	}
	return interval
}

func (w *Prewarmer) runOnce(ctx context.Context) {
	for _, lang := range w.Languages {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		resp, err := w.Service.RefreshTrending(ctx, lang, w.Limit)
		if err != nil {
			slog.Warn("prewarmer: trending failed", "lang", lang, "error", err)
			continue
		}
		slog.Info("prewarmer: trending warmed", "lang", lang, "articles", len(resp.Articles), "took", time.Since(start))
	}
}
