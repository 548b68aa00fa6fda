package domainstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/semtiles/pkg/cache"
	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/observability"
)

// DefaultTimeout bounds every request to the store.
const DefaultTimeout = 30 * time.Second

// Client talks to one domain store.
type Client struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	logger  *log.Logger
	retry   func(context.Context, func() error) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCache enables the stale-listing fallback. A nil keyer uses
// [cache.DefaultKeyer].
func WithCache(ch cache.Cache, keyer cache.Keyer, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		if keyer != nil {
			c.keyer = keyer
		}
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for fallback and retry messages.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry replaces the retry policy for idempotent requests.
func WithRetry(fn func(context.Context, func() error) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.retry = fn
		}
	}
}

// New creates a client for the store at baseURL, e.g.
// "http://localhost:5000/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := errs.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		cache:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		ttl:     cache.ListingTTL,
		logger:  log.New(io.Discard),
		retry:   cache.RetryWithBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the store's base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Backend names the persister for logs and metrics.
func (c *Client) Backend() string { return "http" }

// Close releases the listing cache.
func (c *Client) Close() error { return c.cache.Close() }

// =============================================================================
// Transport
// =============================================================================

// request describes one call. route is the low-cardinality label reported to
// the HTTP hooks; path is the concrete URL path.
type request struct {
	method      string
	route       string
	path        string
	body        io.Reader
	contentType string
}

func jsonRequest(method, route, path string, v any) (request, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return request{}, err
	}
	return request{method: method, route: route, path: path, body: bytes.NewReader(data), contentType: "application/json"}, nil
}

func (c *Client) do(ctx context.Context, r request) (io.ReadCloser, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+"/"+r.path, r.body)
	if err != nil {
		return nil, nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, r.method, r.route)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, r.method, r.route, err)
		if ctx.Err() != nil {
			return nil, nil, errs.Wrap(errs.ErrCodeTimeout, ctx.Err(), "%s %s", r.method, r.path)
		}
		return nil, nil, cache.Retryable(errs.Wrap(errs.ErrCodeNetwork, fmt.Errorf("%w: %v", cache.ErrNetwork, err), "%s %s", r.method, r.path))
	}
	hooks.OnResponse(ctx, r.method, r.route, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	return resp.Body, resp.Header, nil
}

// getJSON performs an idempotent GET with retries and decodes into v.
func (c *Client) getJSON(ctx context.Context, route, path string, v any) error {
	return c.retry(ctx, func() error {
		body, _, err := c.do(ctx, request{method: http.MethodGet, route: route, path: path})
		if err != nil {
			return err
		}
		defer body.Close()
		return decode(body, v)
	})
}

// sendJSON performs a single non-retried request and decodes the response
// into v when v is non-nil.
func (c *Client) sendJSON(ctx context.Context, method, route, path string, in, v any) error {
	var r request
	if in != nil {
		var err error
		if r, err = jsonRequest(method, route, path, in); err != nil {
			return err
		}
	} else {
		r = request{method: method, route: route, path: path}
	}
	body, _, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer body.Close()
	if v == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	return decode(body, v)
}

func decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode store response")
	}
	return nil
}

// errorBody is the store's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	msg := http.StatusText(code)
	var eb errorBody
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}
	switch {
	case code == http.StatusNotFound:
		return errs.Wrap(errs.ErrCodeNotFound, cache.ErrNotFound, "%s", msg)
	case code == http.StatusBadRequest:
		return errs.New(errs.ErrCodeInvalidInput, "%s", msg)
	case code >= 500:
		return cache.Retryable(errs.Wrap(errs.ErrCodeNetwork, fmt.Errorf("%w: status %d", cache.ErrNetwork, code), "%s", msg))
	default:
		return errs.Wrap(errs.ErrCodeStore, fmt.Errorf("status %d", code), "%s", msg)
	}
}
