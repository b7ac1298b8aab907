package feed

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"newsdesk/internal/model"
)

// Dedup removes duplicate articles, keeping the first-seen instance. Two articles are
// duplicates when they share a non-empty link, or when their normalized
// (title, source name) pairs match. Surviving articles get unique IDs: an ID already
// taken by a different article is qualified with the article's feed URL.
func Dedup(articles []model.Article) []model.Article {
	seenLinks := make(map[string]struct{}, len(articles))
	seenTitles := make(map[string]struct{}, len(articles))
	seenIDs := make(map[string]struct{}, len(articles))
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		link := normalizeLink(a.Link)
		title := normalizeTitle(a.Title)
		titleKey := title + "\x00" + strings.ToLower(strings.TrimSpace(a.Source.Name))
		if link != "" {
			if _, ok := seenLinks[link]; ok {
				continue
			}
		}
		if title != "" {
			if _, ok := seenTitles[titleKey]; ok {
				continue
			}
		}
		if link != "" {
			seenLinks[link] = struct{}{}
		}
		if title != "" {
			seenTitles[titleKey] = struct{}{}
		}
		a.ID = uniqueID(a, seenIDs)
		seenIDs[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

func uniqueID(a model.Article, seen map[string]struct{}) string {
	if _, taken := seen[a.ID]; !taken {
		return a.ID
	}
	base := a.ID
	if a.Source.URL != "" {
		base = a.Source.URL + "#" + a.ID
		if _, taken := seen[base]; !taken {
			return base
		}
	}
	for n := 2; ; n++ {
		id := base + "#" + strconv.Itoa(n)
		if _, taken := seen[id]; !taken {
			return id
		}
	}
}

func normalizeLink(link string) string {
	return strings.TrimRight(strings.TrimSpace(link), "/")
}

func normalizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, title)
	return strings.Join(strings.Fields(title), " ")
}

// SortByRecency orders articles newest first. Equal timestamps keep their relative order.
func SortByRecency(articles []model.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
}
