package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"newsdesk/internal/ai"
	"newsdesk/internal/model"

	"github.com/sourcegraph/conc/pool"
)

const systemPrompt = `You are a news sentiment analyst.
Read the news article and rate its overall sentiment.
Respond with a JSON object only, exactly of the form:
{"score": <number between -1 and 1>, "magnitude": <number between 0 and 1>, "label": "<positive|negative|neutral|mixed>"}`

const maxPromptRunes = 1000

// TextExtractor fetches readable text for an article link when the feed gave no summary.
type TextExtractor interface {
	Extract(ctx context.Context, link string) (string, error)
}

// Annotator attaches a sentiment triple to articles using a generative model.
// Failures leave the article unchanged.
type Annotator struct {
	completer ai.Completer
	extractor TextExtractor
	workers   int
}

func NewAnnotator(completer ai.Completer, extractor TextExtractor, workers int) *Annotator {
	if workers <= 0 {
		workers = 4
	}
	return &Annotator{completer: completer, extractor: extractor, workers: workers}
}

// Annotate returns a copy of article with Sentiment set, or the article unchanged if
// the model call or its reply fails.
func (a *Annotator) Annotate(ctx context.Context, article model.Article) model.Article {
	if a == nil || a.completer == nil {
		return article
	}
	s, err := a.analyze(ctx, article)
	if err != nil {
		slog.Warn("sentiment: annotation skipped", "id", article.ID, "error", err)
		return article
	}
	article.Sentiment = s
	return article
}

// AnnotateAll annotates every article with bounded concurrency. Output order matches
// input order.
func (a *Annotator) AnnotateAll(ctx context.Context, articles []model.Article) []model.Article {
	out := make([]model.Article, len(articles))
	copy(out, articles)
	if a == nil || a.completer == nil {
		return out
	}
	p := pool.New().WithMaxGoroutines(a.workers)
	for i := range out {
		i := i
		p.Go(func() {
			out[i] = a.Annotate(ctx, out[i])
		})
	}
	p.Wait()
	return out
}

func (a *Annotator) analyze(ctx context.Context, article model.Article) (*model.Sentiment, error) {
	body := strings.TrimSpace(article.Summary)
	if body == "" && a.extractor != nil && article.Link != "" {
		text, err := a.extractor.Extract(ctx, article.Link)
		if err != nil {
			slog.Debug("sentiment: text extraction failed", "link", article.Link, "error", err)
		} else {
			body = text
		}
	}
	if r := []rune(body); len(r) > maxPromptRunes {
		body = string(r[:maxPromptRunes])
	}
	user := fmt.Sprintf("Title: %s\nContent: %s", article.Title, body)
	out, err := a.completer.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, err
	}
	return Parse(out)
}

type reply struct {
	Score     *float64 `json:"score"`
	Magnitude *float64 `json:"magnitude"`
	Label     string   `json:"label"`
}

// Parse decodes a model reply into a Sentiment, rejecting missing or out-of-range values.
func Parse(raw string) (*model.Sentiment, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("sentiment: empty reply")
	}
	var r reply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("sentiment: decode reply: %w", err)
	}
	if r.Score == nil || r.Magnitude == nil {
		return nil, errors.New("sentiment: missing score or magnitude")
	}
	if math.IsNaN(*r.Score) || *r.Score < -1 || *r.Score > 1 {
		return nil, fmt.Errorf("sentiment: score %v out of range", *r.Score)
	}
	if math.IsNaN(*r.Magnitude) || *r.Magnitude < 0 || *r.Magnitude > 1 {
		return nil, fmt.Errorf("sentiment: magnitude %v out of range", *r.Magnitude)
	}
	label := strings.ToLower(strings.TrimSpace(r.Label))
	switch label {
	case model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral, model.SentimentMixed:
	default:
		return nil, fmt.Errorf("sentiment: unknown label %q", r.Label)
	}
	return &model.Sentiment{Score: *r.Score, Magnitude: *r.Magnitude, Label: label}, nil
}
