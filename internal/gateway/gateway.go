// Package gateway implements the polite outbound HTTP client the rest of the
// engine dials external sources through: per-host token-bucket rate limiting,
// request coalescing, retries with exponential backoff and jitter, deadline
// budgets, response-size caps, and a typed failure surface.
package gateway

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

const (
	defaultMaxBodyBytes = 8 * 1024 * 1024 // 8 MiB
	maxAttempts         = 5
	baseBackoff         = 500 * time.Millisecond
	maxBackoff          = 8 * time.Second
)

// Response is the gateway's normalized result shape.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Gateway is a single, explicitly constructed value holding the two pieces
// of process-global state the design calls out: per-host token buckets and
// the request-coalescing table.
type Gateway struct {
	client       *http.Client
	limiter      *RateLimiter
	coalescer    *coalescer
	userAgent    string
	maxBodyBytes int64
	now          func() time.Time
}

// Option configures a Gateway at construction time.
type Option func(*Gateway)

func WithMaxBodyBytes(n int64) Option {
	return func(g *Gateway) { g.maxBodyBytes = n }
}

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

func New(limiter *RateLimiter, userAgent string, opts ...Option) *Gateway {
	g := &Gateway{
		client:       &http.Client{},
		limiter:      limiter,
		coalescer:    newCoalescer(),
		userAgent:    userAgent,
		maxBodyBytes: defaultMaxBodyBytes,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch performs a rate-limited, retried, deadline-respecting HTTP call.
// headers is added to the request first; the gateway's User-Agent then
// always replaces any caller value, while the host policy's API-key
// (X-Api-Key) and email (From) headers, if configured, are set only where
// the caller did not supply them.
func (g *Gateway) Fetch(ctx context.Context, target, method string, headers http.Header, body []byte) (*Response, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.InvalidInput, "malformed URL", err)
	}
	host := u.Hostname()
	key := coalesceKey(method, target, body)

	resp, err := g.coalescer.do(key, func() (*Response, error) {
		return g.fetchWithRetry(ctx, host, target, method, headers, body)
	})
	return resp, err
}

func (g *Gateway) fetchWithRetry(ctx context.Context, host, target, method string, headers http.Header, body []byte) (*Response, error) {
	policy := g.limiter.Policy(host)
	var lastStatus int
	var attemptErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, litsearcherr.WrapSource(litsearcherr.Cancelled, host, "context cancelled", 0, err)
		}

		if err := g.limiter.Acquire(ctx, host); err != nil {
			return nil, litsearcherr.WrapSource(litsearcherr.Transient, host, "rate-limit-timeout", 0, err)
		}

		resp, retryAfter, err := g.doOnce(ctx, host, target, method, headers, body, policy)
		if err == nil {
			return resp, nil
		}

		kindErr, ok := err.(*litsearcherr.Error)
		if !ok {
			return nil, err
		}
		attemptErr = kindErr
		lastStatus = kindErr.Status

		if !retriable(kindErr) {
			return nil, kindErr
		}

		if attempt == maxAttempts-1 {
			break
		}

		wait := retryAfter
		if wait <= 0 {
			wait = backoffDuration(attempt)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, litsearcherr.WrapSource(litsearcherr.Cancelled, host, "cancelled during backoff", 0, ctx.Err())
		case <-timer.C:
		}
	}

	if attemptErr == nil {
		attemptErr = litsearcherr.WrapSource(litsearcherr.Transient, host, "exhausted retries", lastStatus, nil)
	}
	return nil, attemptErr
}

func retriable(e *litsearcherr.Error) bool {
	switch e.Kind {
	case litsearcherr.Transient:
		return true
	case litsearcherr.Upstream:
		return e.Status == 429 || (e.Status >= 500 && e.Status < 600)
	default:
		return false
	}
}

func backoffDuration(attempt int) time.Duration {
	d := baseBackoff * (1 << attempt)
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 5)) // +-20%
	if rand.Intn(2) == 0 {
		return d - jitter
	}
	return d + jitter
}

// doOnce issues a single HTTP attempt, classifying the outcome into the
// design's error kinds. The returned time.Duration is a non-zero
// Retry-After override when the response carried one.
func (g *Gateway) doOnce(ctx context.Context, host, target, method string, headers http.Header, body []byte, policy HostPolicy) (*Response, time.Duration, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, 0, litsearcherr.WrapSource(litsearcherr.InvalidInput, host, "build request", 0, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	if policy.APIKey != "" && req.Header.Get("X-Api-Key") == "" {
		req.Header.Set("X-Api-Key", policy.APIKey)
	}
	if policy.Email != "" && req.Header.Get("From") == "" {
		req.Header.Set("From", policy.Email)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, litsearcherr.WrapSource(litsearcherr.Cancelled, host, "context done", 0, ctx.Err())
		}
		return nil, 0, litsearcherr.WrapSource(litsearcherr.Transient, host, "network error", 0, err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, g.maxBodyBytes+1)
	buf, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, 0, litsearcherr.WrapSource(litsearcherr.Transient, host, "read body", resp.StatusCode, readErr)
	}
	if int64(len(buf)) > g.maxBodyBytes {
		return nil, 0, litsearcherr.WrapSource(litsearcherr.Upstream, host, "oversize", resp.StatusCode, nil)
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), g.now())

	switch {
	case resp.StatusCode == 429:
		return nil, retryAfter, litsearcherr.WrapSource(litsearcherr.Upstream, host, "rate limited", resp.StatusCode, nil)
	case resp.StatusCode >= 500:
		return nil, retryAfter, litsearcherr.WrapSource(litsearcherr.Upstream, host, "server error", resp.StatusCode, nil)
	case resp.StatusCode >= 400:
		return nil, 0, litsearcherr.WrapSource(litsearcherr.Upstream, host, "client error", resp.StatusCode, nil)
	}

	return &Response{Status: resp.StatusCode, Headers: resp.Header.Clone(), Body: buf}, 0, nil
}

// parseRetryAfter accepts both the seconds and HTTP-date forms.
func parseRetryAfter(header string, now time.Time) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
