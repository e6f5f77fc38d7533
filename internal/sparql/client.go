// Package sparql is the boundary to the remote knowledge graph. Query text is
// assembled by Builder and sent over HTTP by HTTPClient.
package sparql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/cache"
	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/textutil"
	"github.com/ppiankov/semsolver/internal/util"
)

// Client executes queries against a knowledge-graph endpoint.
type Client interface {
	// Select runs a SELECT query.
	Select(ctx context.Context, query string) (*ResultSet, error)

	// Construct runs a CONSTRUCT query and returns the resulting subgraph.
	Construct(ctx context.Context, query string) (*graph.Graph, error)

	// Count runs a SELECT whose first row binds ?count.
	Count(ctx context.Context, query string) (int, error)
}

// RateLimiter paces outgoing requests.
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// querySleepFunc waits between retries (injectable for tests)
var querySleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const (
	kindSelect    = "select"
	kindConstruct = "construct"

	acceptResults = "application/sparql-results+json"
	acceptTriples = "application/n-triples, text/plain;q=0.9"
)

// Options configures HTTPClient.
type Options struct {
	Endpoint     string
	UserAgent    string
	Timeout      time.Duration // Per request
	MaxRetries   int
	MaxBodyBytes int64

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Limiter  RateLimiter   // Optional
	Cache    cache.Cache   // Optional
	CacheTTL time.Duration // Zero uses the cache default

	// HTTPClient replaces the built transport, for tests.
	HTTPClient *http.Client
}

// HTTPClient talks to a SPARQL 1.1 protocol endpoint.
type HTTPClient struct {
	endpoint   string
	userAgent  string
	maxRetries int
	maxBytes   int64
	httpClient *http.Client
	limiter    RateLimiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewHTTPClient builds a client. Endpoint is required.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if _, err := url.ParseRequestURI(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", opts.Endpoint, err)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8_000_000
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "semsolver"
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		}
	}

	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}

	return &HTTPClient{
		endpoint:   opts.Endpoint,
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		maxBytes:   opts.MaxBodyBytes,
		httpClient: hc,
		limiter:    opts.Limiter,
		cache:      c,
		cacheTTL:   opts.CacheTTL,
	}, nil
}

// Select runs a SELECT query.
func (c *HTTPClient) Select(ctx context.Context, query string) (*ResultSet, error) {
	body, err := c.fetch(ctx, kindSelect, query, acceptResults)
	if err != nil {
		return nil, err
	}
	return DecodeResults(body)
}

// Construct runs a CONSTRUCT query.
func (c *HTTPClient) Construct(ctx context.Context, query string) (*graph.Graph, error) {
	body, err := c.fetch(ctx, kindConstruct, query, acceptTriples)
	if err != nil {
		return nil, err
	}
	g, err := graph.Read(bytes.NewReader(body), rdf.NTriples)
	if err != nil {
		return nil, fmt.Errorf("decode construct result: %w", err)
	}
	return g, nil
}

// Count runs a counting SELECT and reads ?count from the first row.
func (c *HTTPClient) Count(ctx context.Context, query string) (int, error) {
	rs, err := c.Select(ctx, query)
	if err != nil {
		return 0, err
	}
	return CountOf(rs)
}

// CountOf reads ?count, or the sole variable, from the first row. No rows
// count as zero.
func CountOf(rs *ResultSet) (int, error) {
	if rs == nil || len(rs.Bindings) == 0 {
		return 0, nil
	}
	row := rs.Bindings[0]
	if _, ok := row["count"]; ok {
		return row.Int("count")
	}
	if len(rs.Vars) == 1 {
		return row.Int(rs.Vars[0])
	}
	return 0, errors.New("count: no ?count variable in result")
}

// fetch returns the response body, from cache when possible, retrying
// transient failures with exponential backoff.
func (c *HTTPClient) fetch(ctx context.Context, kind, query, accept string) ([]byte, error) {
	key := cache.QueryKey(c.endpoint, kind, query)
	if body, ok := c.cache.Get(key); ok {
		return body, nil
	}

	var body []byte
	var err error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		body, err = c.do(ctx, query, accept)
		if err == nil {
			break
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return nil, err
		}
		if attempt < c.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			logging.Debug("retrying query",
				"query", textutil.Truncate(query, 120),
				"attempt", attempt+1,
				"backoff", backoff,
				"err", err,
			)
			if sleepErr := querySleepFunc(ctx, backoff); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if setErr := c.cache.Set(key, body, c.cacheTTL); setErr != nil {
		logging.Debug("cache write failed", "err", setErr)
	}
	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, query, accept string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBytes)
	}
	return body, nil
}
