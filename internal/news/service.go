package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/feed"
	"newsdesk/internal/model"
	"newsdesk/internal/relevance"
	"newsdesk/internal/storage"
	"newsdesk/internal/trending"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

type Aggregator interface {
	FetchAll(ctx context.Context, feedURLs []string, category string) feed.AggregateResult
}

type Scorer interface {
	Score(ctx context.Context, articles []model.Article, query string) relevance.Result
}

type Composer interface {
	Compose(ctx context.Context, lang string, limit int) trending.Result
}

type Options struct {
	// RequestTimeout bounds how long a caller waits. Work started for a cache miss keeps
	// running up to ComputeTimeout so a later request can hit the warmed entry.
	RequestTimeout       time.Duration
	ComputeTimeout       time.Duration
	DefaultTrendingLimit int
}

// Service is the query orchestrator: it validates requests, consults the result cache,
// runs the aggregation pipeline on a miss and shapes the paginated response.
type Service struct {
	catalog  *config.Catalog
	agg      Aggregator
	scorer   Scorer
	composer Composer
	store    storage.Store
	opts     Options
	group    singleflight.Group
}

func NewService(catalog *config.Catalog, agg Aggregator, scorer Scorer, composer Composer, store storage.Store, opts Options) *Service {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 25 * time.Second
	}
	if opts.ComputeTimeout < opts.RequestTimeout {
		opts.ComputeTimeout = 2 * opts.RequestTimeout
	}
	if opts.DefaultTrendingLimit <= 0 {
		opts.DefaultTrendingLimit = 20
	}
	return &Service{catalog: catalog, agg: agg, scorer: scorer, composer: composer, store: store, opts: opts}
}

// Search answers a paginated news query.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	from, err := s.normalizeSearch(&req)
	if err != nil {
		return SearchResponse{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	key := storage.Key("search", req.Language, req.Category, req.Query, req.PreferredSources)
	p, err := s.cached(ctx, key, false, func(ctx context.Context) (model.Payload, bool, error) {
		return s.computeSearch(ctx, req)
	})
	if err != nil {
		return SearchResponse{}, err
	}

	articles, total, message := p.Articles, p.TotalFound, p.Message
	if !from.IsZero() && len(articles) > 0 {
		articles = lo.Filter(articles, func(a model.Article, _ int) bool { return !a.Published.Before(from) })
		total = len(articles)
		if total == 0 {
			message = fmt.Sprintf("No articles published since %s.", from.Format("2006-01-02"))
		}
	}
	page, pages := paginate(articles, req.Page, req.PageSize)
	return SearchResponse{
		Articles:         page,
		Message:          message,
		TotalFound:       total,
		TotalPages:       pages,
		CurrentPage:      req.Page,
		AvailableSources: nonNil(p.AvailableSources),
	}, nil
}

func (s *Service) normalizeSearch(req *SearchRequest) (time.Time, error) {
	req.Query = strings.TrimSpace(req.Query)
	req.Language = strings.ToLower(strings.TrimSpace(req.Language))
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if req.Query == "" && !req.InitialLoad {
		return time.Time{}, fmt.Errorf("%w: query is required unless initial_load is set", ErrInvalidRequest)
	}
	if req.Language == "" {
		req.Language = "en"
	}
	if !s.catalog.HasLanguage(req.Language) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, req.Language)
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 1 {
		return time.Time{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidRequest)
	}
	if req.PageSize == 0 {
		req.PageSize = DefaultPageSize
	}
	if req.PageSize < 1 || req.PageSize > MaxPageSize {
		return time.Time{}, fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidRequest, MaxPageSize)
	}
	return parseFromDate(req.FromDate)
}

func parseFromDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: from_date %q is not a date", ErrInvalidRequest, s)
}

func (s *Service) computeSearch(ctx context.Context, req SearchRequest) (model.Payload, bool, error) {
	urls := s.catalog.LanguageFeeds(req.Language, req.Category)
	res := s.agg.FetchAll(ctx, urls, req.Category)
	if len(urls) > 0 && res.Succeeded == 0 {
		return model.Payload{}, false, fmt.Errorf("%w: all %d feeds failed", ErrUnavailable, len(urls))
	}
	articles := res.Articles
	available := availableSources(articles)

	if len(req.PreferredSources) > 0 {
		articles = filterSources(articles, req.PreferredSources)
		if len(articles) == 0 {
			return model.Payload{
				Articles:         []model.Article{},
				Message:          "No articles found from your preferred sources. Try selecting different sources.",
				AvailableSources: available,
			}, true, nil
		}
	}

	var message string
	if req.Query != "" {
		scored := s.scorer.Score(ctx, articles, req.Query)
		if scored.Total > 0 {
			articles = scored.Articles
			message = fmt.Sprintf("Found %d articles matching '%s'.", scored.Total, req.Query)
		} else {
			articles = recent(articles)
			message = fmt.Sprintf("No exact matches for '%s'. Showing %d recent articles.", req.Query, len(articles))
		}
	} else {
		articles = recent(articles)
		message = fmt.Sprintf("Showing %d recent news articles.", len(articles))
	}

	if len(articles) == 0 {
		return model.Payload{
			Articles:         []model.Article{},
			Message:          "No news articles found. Please try a different search query or language selection.",
			AvailableSources: available,
		}, false, nil
	}
	return model.Payload{
		Articles:         articles,
		Message:          message,
		TotalFound:       len(articles),
		AvailableSources: available,
	}, true, nil
}

// Trending returns the cross-category trending list for a language.
func (s *Service) Trending(ctx context.Context, lang string, limit int) (TrendingResponse, error) {
	return s.trending(ctx, lang, limit, false)
}

// RefreshTrending recomputes the trending list and overwrites the cached entry even when
// it is still fresh. An empty result leaves the previous entry in place.
func (s *Service) RefreshTrending(ctx context.Context, lang string, limit int) (TrendingResponse, error) {
	return s.trending(ctx, lang, limit, true)
}

func (s *Service) trending(ctx context.Context, lang string, limit int, refresh bool) (TrendingResponse, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !s.catalog.HasLanguage(lang) {
		return TrendingResponse{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	if limit == 0 {
		limit = s.opts.DefaultTrendingLimit
	}
	if limit < 1 || limit > MaxTrending {
		return TrendingResponse{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidRequest, MaxTrending)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	key := storage.Key(fmt.Sprintf("trending:%d", limit), lang, "", "", nil)
	p, err := s.cached(ctx, key, refresh, func(ctx context.Context) (model.Payload, bool, error) {
		res := s.composer.Compose(ctx, lang, limit)
		if len(res.Articles) == 0 {
			return model.Payload{
				Articles:   []model.Article{},
				Message:    "No trending news available right now. Please try again shortly.",
				Categories: res.Categories,
			}, false, nil
		}
		active := lo.CountBy(lo.Values(res.Categories), func(n int) bool { return n > 0 })
		return model.Payload{
			Articles:   res.Articles,
			Message:    fmt.Sprintf("Found %d trending articles across %d categories.", len(res.Articles), active),
			TotalFound: len(res.Articles),
			Categories: res.Categories,
		}, true, nil
	})
	if err != nil {
		return TrendingResponse{}, err
	}
	cats := p.Categories
	if cats == nil {
		cats = map[string]int{}
	}
	return TrendingResponse{Articles: nonNil(p.Articles), Message: p.Message, Categories: cats}, nil
}

// Sources lists the outlets configured for a language, one entry per host.
func (s *Service) Sources(lang string) (SourcesResponse, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !s.catalog.HasLanguage(lang) {
		return SourcesResponse{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	infos := lo.Map(s.catalog.LanguageFeeds(lang, ""), func(u string, _ int) SourceInfo {
		return SourceInfo{ID: config.Host(u), Name: s.catalog.SourceName(u), URL: u}
	})
	infos = lo.UniqBy(infos, func(i SourceInfo) string { return i.ID })
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return SourcesResponse{Sources: infos}, nil
}

// Languages returns the language codes that have configured feeds.
func (s *Service) Languages() []string {
	return s.catalog.Languages()
}

// cached serves key from the store, or computes and stores it. Concurrent misses for the
// same key share one computation, which runs detached from the caller so a timed-out
// request still warms the cache. With refresh set the stored entry is ignored.
func (s *Service) cached(ctx context.Context, key string, refresh bool, compute func(context.Context) (model.Payload, bool, error)) (model.Payload, error) {
	if !refresh {
		p, ok, err := s.store.Get(ctx, key)
		if err != nil {
			slog.Error("news: cache read failed", "key", key, "error", err)
			return model.Payload{}, fmt.Errorf("%w: cache: %v", ErrUnavailable, err)
		}
		if ok {
			slog.Debug("news: cache hit", "key", key)
			return p, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(detached, s.opts.ComputeTimeout)
		defer cancel()
		start := time.Now()
		p, cacheable, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		if cacheable && cctx.Err() == nil {
			if err := s.store.Put(cctx, key, p); err != nil {
				slog.Warn("news: cache write failed", "key", key, "error", err)
			}
		}
		slog.Info("news: computed", "key", key, "articles", len(p.Articles), "cached", cacheable, "took", time.Since(start))
		return p, nil
	})

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("news: request deadline exceeded, computation continues", "key", key)
			return model.Payload{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		}
		return model.Payload{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return model.Payload{}, r.Err
		}
		return r.Val.(model.Payload), nil
	}
}

func availableSources(articles []model.Article) []string {
	names := lo.FilterMap(articles, func(a model.Article, _ int) (string, bool) {
		return a.Source.Name, a.Source.Name != ""
	})
	return lo.Uniq(names)
}

// filterSources keeps articles whose source name contains any preferred source,
// case-insensitively.
func filterSources(articles []model.Article, preferred []string) []model.Article {
	wanted := lo.FilterMap(preferred, func(p string, _ int) (string, bool) {
		p = strings.ToLower(strings.TrimSpace(p))
		return p, p != ""
	})
	if len(wanted) == 0 {
		return articles
	}
	return lo.Filter(articles, func(a model.Article, _ int) bool {
		name := strings.ToLower(a.Source.Name)
		return lo.SomeBy(wanted, func(w string) bool { return strings.Contains(name, w) })
	})
}

func recent(articles []model.Article) []model.Article {
	out := make([]model.Article, len(articles))
	copy(out, articles)
	feed.SortByRecency(out)
	return out
}

// paginate returns the 1-based page and the total page count. Pages past the end are
// empty, not an error.
func paginate(articles []model.Article, page, size int) ([]model.Article, int) {
	pages := (len(articles) + size - 1) / size
	if page < 1 || page > pages {
		return []model.Article{}, pages
	}
	out := lo.Subset(articles, (page-1)*size, uint(size))
	return nonNil(out), pages
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
