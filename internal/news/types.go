package news

import (
	"errors"

	"newsdesk/internal/model"
)

var (
	// ErrInvalidRequest marks requests rejected before any fetch work starts.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnsupportedLanguage is returned for language codes with no configured feeds.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnavailable means the upstream could not answer in time or at all. Callers
	// should retry; it is never used for a legitimately empty result.
	ErrUnavailable = errors.New("news temporarily unavailable, the server may still be warming up")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxTrending     = 100
)

type SearchRequest struct {
	Query            string   `json:"query"`
	Language         string   `json:"language"`
	Page             int      `json:"page"`
	PageSize         int      `json:"page_size"`
	PreferredSources []string `json:"preferred_sources"`
	Category         string   `json:"category"`
	FromDate         string   `json:"from_date"`
	InitialLoad      bool     `json:"initial_load"`
}

type SearchResponse struct {
	Articles         []model.Article `json:"articles"`
	Message          string          `json:"message"`
	TotalFound       int             `json:"total_found"`
	TotalPages       int             `json:"total_pages"`
	CurrentPage      int             `json:"current_page"`
	AvailableSources []string        `json:"available_sources"`
}

type TrendingResponse struct {
	Articles   []model.Article `json:"articles"`
	Message    string          `json:"message"`
	Categories map[string]int  `json:"categories"`
}

type SourceInfo struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Image string `json:"image,omitempty"`
}

type SourcesResponse struct {
	Sources []SourceInfo `json:"sources"`
}
