package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsdesk/internal/ai"
	"newsdesk/internal/config"
	"newsdesk/internal/feed"
	"newsdesk/internal/news"
	"newsdesk/internal/redisclient"
	"newsdesk/internal/relevance"
	"newsdesk/internal/sentiment"
	"newsdesk/internal/storage"
	"newsdesk/internal/trending"
)

// app bundles the wired pipeline and whatever needs closing on exit.
type app struct {
	catalog *config.Catalog
	service *news.Service
	closers []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("shutdown: close failed", "error", err)
		}
	}
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	catalog, err := config.LoadCatalog(cfg.Feeds.File)
	if err != nil {
		return nil, err
	}
	a := &app{catalog: catalog}

	fetcher := feed.NewFetcher(feed.FetcherConfig{
		MaxRetries: *cfg.Feeds.MaxRetries,
		RetryDelay: config.Duration(cfg.Feeds.RetryDelay, time.Second),
		Timeout:    config.Duration(cfg.Feeds.FetchTimeout, 15*time.Second),
		UserAgent:  cfg.Feeds.UserAgent,
	}, catalog)
	agg := feed.NewAggregator(fetcher, cfg.Feeds.Workers)

	var (
		embedder  ai.Embedder
		annotator *sentiment.Annotator
	)
	if cfg.OpenAI.APIKey != "" {
		oa, err := ai.NewOpenAI(ai.Config{
			APIKey:         cfg.OpenAI.APIKey,
			Model:          cfg.OpenAI.Model,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
			BaseURL:        cfg.OpenAI.BaseURL,
			Timeout:        config.Duration(cfg.OpenAI.Timeout, 20*time.Second),
		})
		if err != nil {
			return nil, err
		}
		embedder = oa
		var extractor sentiment.TextExtractor
		if cfg.OpenAI.ExtractText {
			extractor = sentiment.NewReadabilityExtractor(10 * time.Second)
		}
		annotator = sentiment.NewAnnotator(oa, extractor, cfg.Trending.SentimentWorkers)
	} else {
		slog.Info("openai: no api key, using lexical scoring and skipping sentiment")
	}
	scorer := relevance.NewScorer(embedder, cfg.OpenAI.MinSimilarity)

	var ann trending.Annotator
	if annotator != nil {
		ann = annotator
	}
	composer := trending.NewComposer(agg, catalog, ann, trending.Options{
		Groups:           catalog.Groups,
		FeedsPerCategory: cfg.Trending.FeedsPerCategory,
		TopPerCategory:   cfg.Trending.TopPerCategory,
	})

	ttl := config.Duration(cfg.Cache.TTL, storage.DefaultTTL)
	var store storage.Store
	switch strings.ToLower(cfg.Cache.Backend) {
	case "redis":
		rdb, err := redisclient.Connect(ctx, cfg.Redis, 3*time.Second)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		store = storage.NewRedisStore(rdb, ttl)
	case "memory":
		ms, err := storage.NewMemoryStore(cfg.Cache.MaxEntries, ttl)
		if err != nil {
			return nil, err
		}
		store = ms
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	slog.Info("cache: ready", "backend", cfg.Cache.Backend, "ttl", ttl)

	a.service = news.NewService(catalog, agg, scorer, composer, store, news.Options{
		RequestTimeout:       config.Duration(cfg.Server.RequestTimeout, 25*time.Second),
		DefaultTrendingLimit: cfg.Trending.DefaultLimit,
	})
	return a, nil
}
