package model

import "time"

// Source identifies where an article came from.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Sentiment labels produced by the annotator.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// Sentiment is the polarity/magnitude/label triple attached to trending articles.
type Sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
	Label     string  `json:"label"`
}

// Article is a normalized news entry produced from a single feed item.
type Article struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	Source    Source     `json:"source"`
	Published time.Time  `json:"published_date"`
	Link      string     `json:"link"`
	ImageURL  string     `json:"image_url,omitempty"`
	Category  string     `json:"category,omitempty"`
	Relevance float64    `json:"relevance,omitempty"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
}

// Payload is what the result cache memoizes for a key.
type Payload struct {
	Articles         []Article      `json:"articles"`
	Message          string         `json:"message"`
	TotalFound       int            `json:"total_found"`
	AvailableSources []string       `json:"available_sources,omitempty"`
	Categories       map[string]int `json:"categories,omitempty"`
}
