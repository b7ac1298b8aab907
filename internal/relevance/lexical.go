package relevance

import (
	"strings"
	"time"
	"unicode"

	"newsdesk/internal/model"

	"github.com/tomakado/containers/set"
)

// Lexical weights. A title hit is worth more than a summary hit; the final score is
// normalized by maxRaw so it stays in [0,1] without clamping away differences.
const (
	weightPhrase  = 0.5
	weightTerms   = 0.3
	weightTitle   = 0.4
	weightDensity = 0.1
	weightRecency = 0.1
	weightSports  = 0.2
	maxRaw        = weightPhrase + weightTerms + weightTitle + weightDensity + weightRecency + weightSports

	// LexicalThreshold is the minimum normalized score for an article to qualify.
	LexicalThreshold = 0.03
)

var stopWords = set.New(
	"a", "an", "the", "of", "in", "on", "at", "to", "for", "and", "or", "is", "are",
	"was", "with", "by", "from", "news", "latest",
)

var sportsMarkers = set.New("vs", "cricket", "ipl", "match", "game", "score")

var teamAcronyms = set.New("csk", "mi", "rcb", "kkr", "srh", "dc", "pbks", "rr", "gt", "lsg")

// normalize lowercases s and replaces every non-word rune with a space. Combining marks
// count as word runes so Indic scripts survive intact.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)), " ")
}

// queryTerms splits a normalized query into terms, dropping stop words unless that
// would leave nothing.
func queryTerms(query string) []string {
	all := strings.Fields(normalize(query))
	terms := make([]string, 0, len(all))
	for _, t := range all {
		if !stopWords.Contains(t) {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return all
	}
	return terms
}

type lexicalQuery struct {
	phrase string
	terms  []string
	sports bool
}

func newLexicalQuery(query string) lexicalQuery {
	q := lexicalQuery{phrase: normalize(query), terms: queryTerms(query)}
	for _, t := range strings.Fields(q.phrase) {
		if sportsMarkers.Contains(t) {
			q.sports = true
			break
		}
	}
	return q
}

// scoreLexical returns the normalized score of a and the number of query terms found in
// its title or summary.
func scoreLexical(q lexicalQuery, a model.Article, now time.Time) (float64, int) {
	if len(q.terms) == 0 {
		return 0, 0
	}
	title := normalize(a.Title)
	summary := normalize(a.Summary)
	combined := strings.TrimSpace(title + " " + summary)
	if combined == "" {
		return 0, 0
	}

	termHits, titleHits := 0, 0
	for _, t := range q.terms {
		if strings.Contains(combined, t) {
			termHits++
		}
		if strings.Contains(title, t) {
			titleHits++
		}
	}
	if termHits == 0 {
		return 0, 0
	}
	n := float64(len(q.terms))

	raw := weightTerms*float64(termHits)/n + weightTitle*float64(titleHits)/n
	if q.phrase != "" && strings.Contains(combined, q.phrase) {
		raw += weightPhrase
	}

	tokens := strings.Fields(combined)
	termSet := set.New(q.terms...)
	occurrences := 0
	teamHit := false
	for _, tok := range tokens {
		if termSet.Contains(tok) {
			occurrences++
		}
		if teamAcronyms.Contains(tok) {
			teamHit = true
		}
	}
	density := float64(occurrences) / float64(len(tokens)) * 10
	if density > 1 {
		density = 1
	}
	raw += weightDensity * density

	if !a.Published.IsZero() {
		days := now.Sub(a.Published).Hours() / 24
		if days < 0 {
			days = 0
		}
		if bonus := weightRecency - float64(int(days))*0.01; bonus > 0 {
			raw += bonus
		}
	}
	if q.sports && teamHit {
		raw += weightSports
	}
	return raw / maxRaw, termHits
}
