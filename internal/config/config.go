package config

import "time"

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	RequestTimeout string `mapstructure:"request_timeout"` // duration string, e.g., "25s"
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // memory or redis
	TTL        string `mapstructure:"ttl"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// FeedsConfig controls fetching.
type FeedsConfig struct {
	File         string `mapstructure:"file"` // optional catalog override
	Workers      int    `mapstructure:"workers"`
	MaxRetries   *int   `mapstructure:"max_retries"` // nil means default; 0 disables retries
	RetryDelay   string `mapstructure:"retry_delay"`
	FetchTimeout string `mapstructure:"fetch_timeout"`
	UserAgent    string `mapstructure:"user_agent"`
}

// TrendingConfig tunes the trending composer.
type TrendingConfig struct {
	FeedsPerCategory int `mapstructure:"feeds_per_category"`
	TopPerCategory   int `mapstructure:"top_per_category"`
	DefaultLimit     int `mapstructure:"default_limit"`
	SentimentWorkers int `mapstructure:"sentiment_workers"`
}

// OpenAIConfig configures the embedding and sentiment models.
type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	MinSimilarity  float64 `mapstructure:"min_similarity"`
	Timeout        string  `mapstructure:"timeout"`
	ExtractText    bool    `mapstructure:"extract_text"`
}

// PrewarmConfig controls the background cache warmer.
type PrewarmConfig struct {
	Interval  string   `mapstructure:"interval"`
	Languages []string `mapstructure:"languages"`
}

// Config is the top-level configuration structure.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Feeds    FeedsConfig    `mapstructure:"feeds"`
	Trending TrendingConfig `mapstructure:"trending"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Prewarm  PrewarmConfig  `mapstructure:"prewarm"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = "25s"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "1800s"
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 1024
	}
	if c.Feeds.Workers == 0 {
		c.Feeds.Workers = 16
	}
	if c.Feeds.MaxRetries == nil {
		retries := 2
		c.Feeds.MaxRetries = &retries
	}
	if c.Feeds.RetryDelay == "" {
		c.Feeds.RetryDelay = "1s"
	}
	if c.Feeds.FetchTimeout == "" {
		c.Feeds.FetchTimeout = "15s"
	}
	if c.Feeds.UserAgent == "" {
		c.Feeds.UserAgent = "newsdesk/1.0"
	}
	if c.Trending.FeedsPerCategory == 0 {
		c.Trending.FeedsPerCategory = 5
	}
	if c.Trending.TopPerCategory == 0 {
		c.Trending.TopPerCategory = 10
	}
	if c.Trending.DefaultLimit == 0 {
		c.Trending.DefaultLimit = 20
	}
	if c.Trending.SentimentWorkers == 0 {
		c.Trending.SentimentWorkers = 4
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.MinSimilarity == 0 {
		c.OpenAI.MinSimilarity = 0.3
	}
	if c.OpenAI.Timeout == "" {
		c.OpenAI.Timeout = "20s"
	}
	if c.Prewarm.Interval == "" {
		c.Prewarm.Interval = "15m"
	}
}

// Duration parses a duration string, falling back to def when it is empty or invalid.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
