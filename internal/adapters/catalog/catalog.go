// Package catalog is the HTTP client for the upstream game catalog.
//
// Outbound calls are rate limited, retried once on transient failures,
// and guarded by a circuit breaker so a struggling upstream degrades
// the feed (smaller pools) instead of stalling it. Raw records are
// normalized at this boundary; nothing past this package handles
// partial JSON.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/gamefeed/internal/assembler"
	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/pkg/logger"
	"github.com/okian/gamefeed/pkg/metrics"
)

// Client defaults.
const (
	defaultTimeout       = 10 * time.Second
	defaultRatePerSecond = 4
	defaultBurst         = 4
	retryDelay           = 200 * time.Millisecond
	maxAttempts          = 2

	breakerWindow      = time.Minute
	breakerCooldown    = 30 * time.Second
	breakerMinRequests = 5
	breakerFailureRate = 0.6
)

// pagedResponse is the upstream list envelope.
type pagedResponse struct {
	Count   int             `json:"count"`
	Results []model.RawItem `json:"results"`
}

// screenshotsResponse is the upstream screenshots envelope.
type screenshotsResponse struct {
	Results []struct {
		Image string `json:"image"`
	} `json:"results"`
}

// genresResponse is the upstream genre list envelope.
type genresResponse struct {
	Results []model.Genre `json:"results"`
}

// Client talks to the upstream catalog API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  logger.Logger
}

// New creates a catalog client for the given base URL with configuration
// options.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultBurst),
		logger:  logger.Get().Named("catalog"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
		Interval:    breakerWindow,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breakerFailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "catalog breaker state change",
				logger.String("from", from.String()), logger.String("to", to.String()))
			if to == gobreaker.StateOpen {
				metrics.RecordBreakerOpen()
			}
		},
	})

	return c
}

// FetchPage pulls one catalog page and normalizes the records.
func (c *Client) FetchPage(ctx context.Context, req assembler.PageRequest) ([]model.CatalogItem, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("page_size", strconv.Itoa(req.PageSize))
	if req.Genres != "" {
		q.Set("genres", req.Genres)
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}

	body, err := c.get(ctx, "/games", q)
	if err != nil {
		return nil, err
	}

	var page pagedResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	items := make([]model.CatalogItem, 0, len(page.Results))
	for _, raw := range page.Results {
		items = append(items, raw.Normalize())
	}
	return items, nil
}

// Detail fetches one item by id.
func (c *Client) Detail(ctx context.Context, id int64) (model.CatalogItem, error) {
	body, err := c.get(ctx, "/games/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return model.CatalogItem{}, err
	}

	var raw model.RawItem
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.CatalogItem{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return raw.Normalize(), nil
}

// Screenshots fetches the screenshot image URLs for one item.
func (c *Client) Screenshots(ctx context.Context, id int64) ([]string, error) {
	body, err := c.get(ctx, "/games/"+strconv.FormatInt(id, 10)+"/screenshots", nil)
	if err != nil {
		return nil, err
	}

	var shots screenshotsResponse
	if err := json.Unmarshal(body, &shots); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	urls := make([]string, 0, len(shots.Results))
	for _, s := range shots.Results {
		if s.Image != "" {
			urls = append(urls, s.Image)
		}
	}
	return urls, nil
}

// Genres fetches the upstream genre list.
func (c *Client) Genres(ctx context.Context) ([]model.Genre, error) {
	body, err := c.get(ctx, "/genres", nil)
	if err != nil {
		return nil, err
	}

	var genres genresResponse
	if err := json.Unmarshal(body, &genres); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return genres.Results, nil
}

// get performs one rate-limited, breaker-guarded GET with a single
// retry on transient failures.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			data, retryable, reqErr := c.doGet(ctx, path, query)
			if reqErr == nil {
				return data, nil
			}
			lastErr = reqErr
			if !retryable || attempt == maxAttempts {
				break
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		return nil, lastErr
	})

	metrics.RecordUpstreamFetchLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordUpstreamFetch("failure")
		return nil, err
	}
	metrics.RecordUpstreamFetch("success")
	return body, nil
}

// doGet performs the raw request. The second return reports whether the
// failure is worth retrying (network errors and 5xx responses).
func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, bool, error) {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	u := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("catalog request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "failed to close response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, resp.StatusCode >= http.StatusInternalServerError, &StatusError{
			Code:    resp.StatusCode,
			Message: string(snippet),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	return body, false, nil
}
