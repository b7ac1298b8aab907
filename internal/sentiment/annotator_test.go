package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"newsdesk/internal/model"
)

type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	reply func(user string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.reply(user)
}

type fakeExtractor struct{ text string }

func (f fakeExtractor) Extract(context.Context, string) (string, error) { return f.text, nil }

func TestAnnotateAllIsolatesFailures(t *testing.T) {
	c := &fakeCompleter{reply: func(user string) (string, error) {
		if strings.Contains(user, "story 7") {
			return "", errors.New("upstream exploded")
		}
		return `{"score": 0.4, "magnitude": 0.6, "label": "positive"}`, nil
	}}
	a := NewAnnotator(c, nil, 3)
	in := make([]model.Article, 10)
	for i := range in {
		in[i] = model.Article{ID: fmt.Sprint(i), Title: fmt.Sprintf("story %d", i)}
	}
	out := a.AnnotateAll(context.Background(), in)
	if len(out) != 10 {
		t.Fatalf("got %d articles", len(out))
	}
	annotated := 0
	for i, art := range out {
		if art.ID != in[i].ID {
			t.Fatalf("order changed at %d: %s", i, art.ID)
		}
		if art.Sentiment != nil {
			annotated++
		}
	}
	if annotated != 9 {
		t.Fatalf("annotated=%d, want 9", annotated)
	}
	if out[7].Sentiment != nil {
		t.Fatalf("failed article should stay unannotated")
	}
	if in[0].Sentiment != nil {
		t.Fatalf("input slice was mutated")
	}
	if c.calls != 10 {
		t.Fatalf("calls=%d", c.calls)
	}
}

func TestAnnotateUsesExtractedTextWhenSummaryEmpty(t *testing.T) {
	var got string
	c := &fakeCompleter{reply: func(user string) (string, error) {
		got = user
		return `{"score": -0.2, "magnitude": 0.3, "label": "negative"}`, nil
	}}
	a := NewAnnotator(c, fakeExtractor{text: "full page body"}, 1)
	art := a.Annotate(context.Background(), model.Article{Title: "t", Link: "http://example.com/a"})
	if art.Sentiment == nil || art.Sentiment.Label != model.SentimentNegative {
		t.Fatalf("unexpected sentiment %+v", art.Sentiment)
	}
	if !strings.Contains(got, "full page body") {
		t.Fatalf("prompt missing extracted text: %q", got)
	}
}

func TestNilAnnotatorPassesThrough(t *testing.T) {
	var a *Annotator
	in := []model.Article{{ID: "x"}}
	out := a.AnnotateAll(context.Background(), in)
	if len(out) != 1 || out[0].Sentiment != nil {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		label string
		ok    bool
	}{
		{"plain", `{"score":0.5,"magnitude":0.5,"label":"positive"}`, "positive", true},
		{"fenced", "```json\n{\"score\":0,\"magnitude\":0.1,\"label\":\"Neutral\"}\n```", "neutral", true},
		{"mixed", `{"score":0.1,"magnitude":0.9,"label":"mixed"}`, "mixed", true},
		{"score out of range", `{"score":1.5,"magnitude":0.5,"label":"positive"}`, "", false},
		{"negative magnitude", `{"score":0.5,"magnitude":-0.1,"label":"positive"}`, "", false},
		{"unknown label", `{"score":0.5,"magnitude":0.5,"label":"happy"}`, "", false},
		{"missing score", `{"magnitude":0.5,"label":"positive"}`, "", false},
		{"not json", `positive`, "", false},
		{"empty", ``, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse(tc.in)
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if s.Label != tc.label {
					t.Fatalf("label=%q want %q", s.Label, tc.label)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error, got %+v", s)
			}
		})
	}
}
