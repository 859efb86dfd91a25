// Package visualsearch is the client for the secondary backend: image
// similarity search authenticated with a bearer token.
package visualsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/metrics"
	"github.com/donaldgifford/storefront-query/internal/pipeline"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

const (
	backendName    = "visual_search"
	defaultTimeout = 30 * time.Second

	searchPath = "/v1/search"
	tokenPath  = "/v1/token" //nolint:gosec // not a credential
)

// ErrAuthenticationExpired is returned when the backend rejects the bearer
// token with 401. Callers refresh the token and retry.
var ErrAuthenticationExpired = errors.New("visual search authentication expired")

// Searcher runs one visual-search page request.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is one page of a visual search. Image (base64) is sent on
// the first page, Continuation on later ones.
type SearchRequest struct {
	Page         int
	Image        string
	Continuation string
	Params       filter.Params
}

// SearchResponse is one parsed page of results.
type SearchResponse struct {
	Products     []domain.Product
	Pagination   domain.Pagination
	Continuation string
	Bindings     filter.Bindings
	ActiveLevels filter.ActiveLevels
}

// Client talks to one visual-search base URL. The bearer token is read
// from the TokenSource on every request, so a Client outlives refreshes.
type Client struct {
	baseURL  string
	tokens   pipeline.TokenSource
	fallback pipeline.FallbackFunc

	transport http.RoundTripper
	timeout   time.Duration
	logger    *slog.Logger

	search *http.Client
	token  *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithTransport sets the transport the pipelines send through.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used by the request pipelines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithFallbackToken sets where the token sent while none is held comes
// from. f is read on every request, so one client can serve several stores
// that share a base URL.
func WithFallbackToken(f func() string) Option {
	return func(c *Client) {
		c.fallback = f
	}
}

// NewClient builds a client for baseURL. Requests are assembled with
// relative paths and resolved against baseURL by the pipeline.
func NewClient(baseURL string, tokens pipeline.TokenSource, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	rewrite, err := pipeline.RewriteBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("building visual search client: %w", err)
	}

	c.search = pipeline.New(c.transport,
		pipeline.Bearer(c.tokens, c.fallback),
		pipeline.Logging(c.logger, backendName),
		rewrite,
		pipeline.Metrics(backendName),
	).Client(c.timeout)

	// The token endpoint is called when the bearer token is already bad,
	// so it carries no Authorization header.
	c.token = pipeline.New(c.transport,
		pipeline.Logging(c.logger, backendName),
		rewrite,
		pipeline.Metrics(backendName),
	).Client(c.timeout)

	return c, nil
}

// BaseURL returns the base URL the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type searchBody struct {
	Page         int               `json:"page"`
	Image        string            `json:"image,omitempty"`
	Continuation string            `json:"continuation,omitempty"`
	Filters      map[string]string `json:"filters"`
}

type searchAPIResponse struct {
	Products     []domain.Product  `json:"products"`
	Pagination   domain.Pagination `json:"pagination"`
	Continuation string            `json:"continuation"`
	Filters      domain.FilterEcho `json:"filters"`
}

// Search runs one page of a visual search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	filters := map[string]string(req.Params)
	if filters == nil {
		filters = map[string]string{}
	}

	var resp searchAPIResponse
	err := c.post(ctx, c.search, searchPath, searchBody{
		Page:         req.Page,
		Image:        req.Image,
		Continuation: req.Continuation,
		Filters:      filters,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("visual search page %d: %w", req.Page, err)
	}

	return &SearchResponse{
		Products:     resp.Products,
		Pagination:   resp.Pagination,
		Continuation: resp.Continuation,
		Bindings:     filter.BindingsFromServer(resp.Filters.Bindings),
		ActiveLevels: filter.ActiveLevels(resp.Filters.Active),
	}, nil
}

type tokenBody struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// RequestToken exchanges apiKey for a fresh bearer token and its lifetime.
func (c *Client) RequestToken(ctx context.Context, apiKey string) (string, time.Duration, error) {
	var resp tokenResponse
	if err := c.post(ctx, c.token, tokenPath, tokenBody{APIKey: apiKey}, &resp); err != nil {
		return "", 0, fmt.Errorf("requesting token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", 0, errors.New("requesting token: empty access_token")
	}
	return resp.AccessToken, time.Duration(resp.ExpiresIn) * time.Second, nil
}

func (*Client) post(ctx context.Context, hc *http.Client, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		metrics.AuthenticationExpiredTotal.Inc()
		return ErrAuthenticationExpired
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("visual search API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
