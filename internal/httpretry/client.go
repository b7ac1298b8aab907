package httpretry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	backoffFactor     = 1.5
)

type Options struct {
	Timeout    time.Duration // per attempt
	MaxRetries int
	BaseDelay  time.Duration
	Client     *http.Client
}

// Client retries requests that fail with a gateway-class status (502, 503, 504) or a
// network error. The delay before retry n (0-based) is BaseDelay * 1.5^n.
type Client struct {
	rc        *retryablehttp.Client
	baseDelay time.Duration
}

func New(opts Options) *Client {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	if opts.Client != nil {
		hc := *opts.Client
		rc.HTTPClient = &hc
	}
	rc.HTTPClient.Timeout = opts.Timeout
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = opts.BaseDelay
	rc.Logger = slog.Default()
	rc.CheckRetry = checkRetry
	rc.Backoff = backoff
	// hand the last gateway response back instead of a "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{rc: rc, baseDelay: opts.BaseDelay}
}

// Backoff returns the wait before retry n.
func (c *Client) Backoff(n int) time.Duration {
	return backoff(c.baseDelay, 0, n, nil)
}

// Do sends req, retrying as described on Client. The request body is buffered so it
// can be replayed. The response body belongs to the caller.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return c.rc.Do(rreq)
}

func backoff(base, _ time.Duration, attempt int, _ *http.Response) time.Duration {
	return time.Duration(float64(base) * math.Pow(backoffFactor, float64(attempt)))
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return !errors.Is(err, context.Canceled), nil
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}
