// Package paging fetches listing pages in the two listing modes. The
// Coordinator holds no state between calls: every result carries the
// filter bindings, active levels and continuation handle the caller passes
// into the next request.
package paging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/storefront-query/internal/catalog"
	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/metrics"
	"github.com/donaldgifford/storefront-query/internal/visualsearch"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

var (
	// ErrContinuationTokenMissing is returned for a visual-search page after
	// the first when no continuation handle is supplied.
	ErrContinuationTokenMissing = errors.New("continuation handle required for visual search pages after the first")
	// ErrImageMissing is returned for the first visual-search page when no
	// image is supplied.
	ErrImageMissing = errors.New("image required for the first visual search page")
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page number must be at least 1")
	// ErrCategoryMissing is returned for a browse request without a category.
	ErrCategoryMissing = errors.New("category id required for category browse")
)

// SearcherFunc yields the visual-search client to use for one request.
type SearcherFunc func() visualsearch.Searcher

// PageRequest describes one page fetch. Bindings and ActiveLevels are the
// values returned with the previous page; both may be nil for page 1.
type PageRequest struct {
	Mode               Mode
	Page               int
	CategoryID         string
	Selection          filter.Selection
	Bindings           filter.Bindings
	ActiveLevels       filter.ActiveLevels
	ContinuationHandle string
	Image              string
}

// PageResult is one fully parsed page.
type PageResult struct {
	Items              []domain.Product
	HasNextPage        bool
	CurrentPage        int
	LastPage           int
	TotalCount         int
	ContinuationHandle string
	Bindings           filter.Bindings
	ActiveLevels       filter.ActiveLevels
	// Params are the filter parameters that were sent.
	Params filter.Params
}

// Coordinator fetches pages for both listing modes.
type Coordinator struct {
	lister   catalog.Lister
	searcher SearcherFunc
	resolver filter.Resolver
	logger   *slog.Logger
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithResolver overrides the filter resolver.
func WithResolver(r filter.Resolver) Option {
	return func(c *Coordinator) {
		c.resolver = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a Coordinator. searcher is called once per
// visual-search request so the client always matches the active store.
func NewCoordinator(lister catalog.Lister, searcher SearcherFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		lister:   lister,
		searcher: searcher,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// FetchPage validates req, resolves its filters and fetches one page.
// Validation failures return before any I/O. On error no result is
// returned.
func (c *Coordinator) FetchPage(ctx context.Context, req PageRequest) (*PageResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	bindings := c.resolver.Defaults().Merge(req.Bindings)

	res := c.resolver.Explain(req.Selection, bindings, req.ActiveLevels)
	if len(res.Defaulted) > 0 {
		metrics.CategoryDefaultedTotal.Add(float64(len(res.Defaulted)))
		c.logger.Debug("category ids sent under default level",
			"ids", res.Defaulted,
			"error", filter.ErrCategoryLevelAmbiguous,
		)
	}
	if len(res.Ambiguous) > 0 {
		c.logger.Debug("category ids echoed under several levels", "levels", res.Ambiguous)
	}
	if len(res.Collisions) > 0 {
		c.logger.Warn("filter dimensions share a parameter name, values merged", "params", res.Collisions)
	}

	var (
		out *PageResult
		err error
	)
	switch req.Mode {
	case ModeCategoryBrowse:
		out, err = c.browse(ctx, req, res.Params)
	case ModeVisualSearch:
		out, err = c.visualSearch(ctx, req, res.Params)
	}
	if err != nil {
		metrics.PageFetchFailuresTotal.WithLabelValues(req.Mode.String()).Inc()
		return nil, err
	}

	out.Params = res.Params
	out.Bindings = bindings.Merge(out.Bindings)
	if out.ActiveLevels == nil {
		out.ActiveLevels = req.ActiveLevels
	}
	metrics.PagesFetchedTotal.WithLabelValues(req.Mode.String()).Inc()
	return out, nil
}

func validate(req PageRequest) error {
	if req.Page < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, req.Page)
	}
	switch req.Mode {
	case ModeCategoryBrowse:
		if req.CategoryID == "" {
			return ErrCategoryMissing
		}
	case ModeVisualSearch:
		if req.Page == 1 && req.Image == "" {
			return ErrImageMissing
		}
		if req.Page > 1 && req.ContinuationHandle == "" {
			return fmt.Errorf("page %d: %w", req.Page, ErrContinuationTokenMissing)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(req.Mode))
	}
	return nil
}

func (c *Coordinator) browse(ctx context.Context, req PageRequest, params filter.Params) (*PageResult, error) {
	resp, err := c.lister.Listing(ctx, catalog.ListingRequest{
		CategoryID: req.CategoryID,
		Page:       req.Page,
		Params:     params,
	})
	if err != nil {
		return nil, fmt.Errorf("browsing page %d: %w", req.Page, err)
	}

	return &PageResult{
		Items:        resp.Products,
		HasNextPage:  resp.Pagination.HasNext,
		CurrentPage:  resp.Pagination.CurrentPage,
		LastPage:     resp.Pagination.LastPage,
		TotalCount:   resp.Pagination.Total,
		Bindings:     resp.Bindings,
		ActiveLevels: resp.ActiveLevels,
	}, nil
}

func (c *Coordinator) visualSearch(ctx context.Context, req PageRequest, params filter.Params) (*PageResult, error) {
	sreq := visualsearch.SearchRequest{Page: req.Page, Params: params}
	if req.Page == 1 {
		sreq.Image = req.Image
	} else {
		sreq.Continuation = req.ContinuationHandle
	}

	resp, err := c.searcher().Search(ctx, sreq)
	if err != nil {
		return nil, fmt.Errorf("visual search page %d: %w", req.Page, err)
	}

	return &PageResult{
		Items:              resp.Products,
		HasNextPage:        resp.Pagination.HasNext,
		CurrentPage:        resp.Pagination.CurrentPage,
		LastPage:           resp.Pagination.LastPage,
		TotalCount:         resp.Pagination.Total,
		ContinuationHandle: resp.Continuation,
		Bindings:           resp.Bindings,
		ActiveLevels:       resp.ActiveLevels,
	}, nil
}
