package sentiment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

var redundantSpace = regexp.MustCompile(`\s+`)

// ReadabilityExtractor downloads an article page and extracts its main text.
type ReadabilityExtractor struct {
	client *http.Client
}

func NewReadabilityExtractor(timeout time.Duration) *ReadabilityExtractor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReadabilityExtractor{client: &http.Client{Timeout: timeout}}
}

func (r *ReadabilityExtractor) Extract(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid link: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("readability: %s status %d", link, resp.StatusCode)
	}
	doc, err := readability.FromReader(io.LimitReader(resp.Body, 2<<20), pageURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(redundantSpace.ReplaceAllString(doc.TextContent, " ")), nil
}
