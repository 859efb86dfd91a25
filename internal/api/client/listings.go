package client

import (
	"context"
	"net/http"
	"time"

	"github.com/donaldgifford/storefront-query/internal/api/handlers"
	"github.com/donaldgifford/storefront-query/internal/filter"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// Page is one listing page. Pass Bindings and ActiveLevels back with the
// request for the next page.
type Page = handlers.PageBody

// BrowseRequest requests one category browse page.
type BrowseRequest struct {
	CategoryID   string              `json:"category_id"`
	Page         int                 `json:"page,omitempty"`
	Filters      *filter.Selection   `json:"filters,omitempty"`
	Bindings     map[string]string   `json:"bindings,omitempty"`
	ActiveLevels map[string][]string `json:"active_levels,omitempty"`
}

// VisualSearchRequest requests one visual search page.
type VisualSearchRequest struct {
	Page               int                 `json:"page,omitempty"`
	Image              string              `json:"image,omitempty"`
	ContinuationHandle string              `json:"continuation_handle,omitempty"`
	Filters            *filter.Selection   `json:"filters,omitempty"`
	Bindings           map[string]string   `json:"bindings,omitempty"`
	ActiveLevels       map[string][]string `json:"active_levels,omitempty"`
}

// Next returns the request for the page after p, carrying its filter state.
func (r BrowseRequest) Next(p *Page) BrowseRequest {
	r.Page = p.CurrentPage + 1
	r.Bindings = p.Bindings
	r.ActiveLevels = p.ActiveLevels
	return r
}

// Next returns the request for the page after p. The image is only sent
// with the first page.
func (r VisualSearchRequest) Next(p *Page) VisualSearchRequest {
	r.Page = p.CurrentPage + 1
	r.Image = ""
	r.ContinuationHandle = p.ContinuationHandle
	r.Bindings = p.Bindings
	r.ActiveLevels = p.ActiveLevels
	return r
}

// Browse fetches one category browse page.
func (c *Client) Browse(ctx context.Context, req BrowseRequest) (*Page, error) {
	var p Page
	if err := c.post(ctx, "/api/v1/listings", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// BrowseAllResult is the concatenation of every page walked by the server.
type BrowseAllResult struct {
	Items []domain.Product `json:"items"`
	Pages int              `json:"pages"`
	Last  Page             `json:"last"`
}

// BrowseAll walks a category server-side. maxPages <= 0 uses the server cap.
func (c *Client) BrowseAll(ctx context.Context, categoryID string, sel *filter.Selection, maxPages int) (*BrowseAllResult, error) {
	body := struct {
		CategoryID string            `json:"category_id"`
		Filters    *filter.Selection `json:"filters,omitempty"`
		MaxPages   int               `json:"max_pages,omitempty"`
	}{categoryID, sel, maxPages}

	var out BrowseAllResult
	if err := c.post(ctx, "/api/v1/listings/all", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VisualSearch fetches one visual search page. A 503 means the server is
// re-authenticating; the search is retried once after the retry delay.
func (c *Client) VisualSearch(ctx context.Context, req VisualSearchRequest) (*Page, error) {
	var p Page
	err := c.post(ctx, "/api/v1/visual-search", req, &p)
	if IsStatus(err, http.StatusServiceUnavailable) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
		err = c.post(ctx, "/api/v1/visual-search", req, &p)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
