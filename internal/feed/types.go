package feed

import "newsdesk/internal/model"

// FetchResult is the outcome of fetching one feed. A failed fetch carries Err and no
// articles; callers treat it as an empty contribution.
type FetchResult struct {
	URL      string
	Articles []model.Article
	Attempts int
	Err      error
}

// AggregateResult collects the deduplicated articles of a fan-out together with
// per-feed success counts.
type AggregateResult struct {
	Articles  []model.Article
	Succeeded int
	Failed    int
}

// SourceNamer maps a feed URL to a display name.
type SourceNamer interface {
	SourceName(feedURL string) string
}
