package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"newsdesk/internal/ai"
	"newsdesk/internal/model"
)

// Scoring methods reported in Result.Method.
const (
	MethodEmbedding = "embedding"
	MethodLexical   = "lexical"
)

const embedBatchSize = 256

// DefaultMinSimilarity is the cosine similarity an article needs on the embedding path.
const DefaultMinSimilarity = 0.3

// Result holds the qualifying articles sorted by descending relevance.
type Result struct {
	Articles []model.Article
	Total    int
	Method   string
}

// Scorer ranks articles against a query. With an Embedder configured it tries semantic
// similarity first and falls back to lexical scoring when any embedding call fails.
type Scorer struct {
	embedder      ai.Embedder
	minSimilarity float64
	now           func() time.Time
}

func NewScorer(embedder ai.Embedder, minSimilarity float64) *Scorer {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &Scorer{embedder: embedder, minSimilarity: minSimilarity, now: time.Now}
}

// Score sets Relevance on the qualifying articles and returns them sorted. The input
// slice is not modified. Equal scores keep their input order.
func (s *Scorer) Score(ctx context.Context, articles []model.Article, query string) Result {
	if s.embedder != nil && len(articles) > 0 {
		res, err := s.scoreEmbedding(ctx, articles, query)
		if err == nil {
			return res
		}
		slog.Warn("relevance: embedding path failed, using lexical scoring", "error", err)
	}
	return s.scoreLexical(articles, query)
}

func (s *Scorer) scoreLexical(articles []model.Article, query string) Result {
	q := newLexicalQuery(query)
	now := s.now()
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		score, hits := scoreLexical(q, a, now)
		if hits == 0 || score < LexicalThreshold {
			continue
		}
		a.Relevance = score
		out = append(out, a)
	}
	sortByRelevance(out)
	return Result{Articles: out, Total: len(out), Method: MethodLexical}
}

func (s *Scorer) scoreEmbedding(ctx context.Context, articles []model.Article, query string) (Result, error) {
	qv, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 || len(qv[0]) == 0 {
		return Result{}, errors.New("embed query: malformed response")
	}
	queryVec := qv[0]

	out := make([]model.Article, 0, len(articles))
	for start := 0; start < len(articles); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(articles) {
			end = len(articles)
		}
		batch := articles[start:end]
		texts := make([]string, len(batch))
		for i, a := range batch {
			texts[i] = strings.TrimSpace(a.Title + ". " + a.Summary)
		}
		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return Result{}, fmt.Errorf("embed articles: %w", err)
		}
		if len(vecs) != len(batch) {
			return Result{}, fmt.Errorf("embed articles: got %d vectors for %d texts", len(vecs), len(batch))
		}
		for i, a := range batch {
			sim, err := cosine(queryVec, vecs[i])
			if err != nil {
				return Result{}, err
			}
			if sim < s.minSimilarity {
				continue
			}
			a.Relevance = sim
			out = append(out, a)
		}
	}
	sortByRelevance(out)
	return Result{Articles: out, Total: len(out), Method: MethodEmbedding}, nil
}

// cosine returns the cosine similarity of a and b clamped to [0,1].
func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, errors.New("zero-length embedding")
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(sim) {
		return 0, errors.New("invalid embedding")
	}
	return math.Max(0, math.Min(1, sim)), nil
}

func sortByRelevance(articles []model.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Relevance > articles[j].Relevance
	})
}
