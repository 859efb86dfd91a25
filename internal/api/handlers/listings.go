package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/paging"
	"github.com/donaldgifford/storefront-query/internal/visualsearch"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// backgroundRefreshTimeout bounds a refresh started after a rejected search.
const backgroundRefreshTimeout = time.Minute

// PageFetcher fetches one listing page.
type PageFetcher interface {
	FetchPage(ctx context.Context, req paging.PageRequest) (*paging.PageResult, error)
}

// PageWalker fetches consecutive pages, threading filter state between them.
type PageWalker interface {
	PageFetcher
	Walk(ctx context.Context, first paging.PageRequest, maxPages int, fn paging.WalkFunc) error
}

// TokenRefresher keeps the visual-search bearer token fresh.
type TokenRefresher interface {
	RefreshIfNeeded(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
}

// ListingsHandler serves category browse and visual search pages.
type ListingsHandler struct {
	pages     PageWalker
	session   StoreSession
	refresher TokenRefresher
	maxPages  int
	logger    *slog.Logger

	// background tracks refreshes started after a 401.
	background sync.WaitGroup
}

// NewListingsHandler creates a new ListingsHandler. maxPages caps
// BrowseAll; <= 0 leaves the walker's default.
func NewListingsHandler(
	pages PageWalker,
	s StoreSession,
	refresher TokenRefresher,
	maxPages int,
	log *slog.Logger,
) *ListingsHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ListingsHandler{
		pages:     pages,
		session:   s,
		refresher: refresher,
		maxPages:  maxPages,
		logger:    log,
	}
}

// --- Input/Output types ---

// BrowseInput requests one category browse page.
type BrowseInput struct {
	Body struct {
		CategoryID   string              `json:"category_id,omitempty"   example:"1045"       doc:"Category to browse"`
		Page         int                 `json:"page,omitempty"          default:"1"          doc:"1-based page number"`
		Filters      *filter.Selection   `json:"filters,omitempty"       doc:"Filter selection, the session selection when omitted"`
		Bindings     map[string]string   `json:"bindings,omitempty"      doc:"Bindings returned with the previous page"`
		ActiveLevels map[string][]string `json:"active_levels,omitempty" doc:"Active category levels returned with the previous page"`
	}
}

// VisualSearchInput requests one visual search page.
type VisualSearchInput struct {
	Body struct {
		Page               int                 `json:"page,omitempty"                default:"1" doc:"1-based page number"`
		Image              string              `json:"image,omitempty"               doc:"Image reference, required on page 1"`
		ContinuationHandle string              `json:"continuation_handle,omitempty" doc:"Handle returned with the previous page, required after page 1"`
		Filters            *filter.Selection   `json:"filters,omitempty"             doc:"Filter selection, the session selection when omitted"`
		Bindings           map[string]string   `json:"bindings,omitempty"            doc:"Bindings returned with the previous page"`
		ActiveLevels       map[string][]string `json:"active_levels,omitempty"       doc:"Active category levels returned with the previous page"`
	}
}

// BrowseAllInput requests consecutive category browse pages.
type BrowseAllInput struct {
	Body struct {
		CategoryID string            `json:"category_id,omitempty" example:"1045" doc:"Category to browse"`
		Filters    *filter.Selection `json:"filters,omitempty"     doc:"Filter selection, the session selection when omitted"`
		MaxPages   int               `json:"max_pages,omitempty"   doc:"Stop after this many pages, capped by the server limit" minimum:"0"`
	}
}

// BrowseAllOutput is the concatenation of the walked pages.
type BrowseAllOutput struct {
	Body struct {
		Items []domain.Product `json:"items"`
		Pages int              `json:"pages" doc:"Pages fetched"`
		Last  PageBody         `json:"last"  doc:"The last page fetched, without its items"`
	}
}

// PageBody is one listing page. Bindings and ActiveLevels must be sent
// back with the request for the next page.
type PageBody struct {
	Items              []domain.Product    `json:"items"`
	HasNextPage        bool                `json:"has_next_page"`
	CurrentPage        int                 `json:"current_page"`
	LastPage           int                 `json:"last_page"`
	TotalCount         int                 `json:"total_count"`
	ContinuationHandle string              `json:"continuation_handle,omitempty"`
	Bindings           map[string]string   `json:"bindings"`
	ActiveLevels       map[string][]string `json:"active_levels"`
	Params             map[string]string   `json:"params" doc:"Filter parameters sent to the backend"`
}

// PageOutput is the response for both listing modes.
type PageOutput struct {
	Body PageBody
}

// --- Handlers ---

// Browse returns one category browse page.
func (h *ListingsHandler) Browse(ctx context.Context, input *BrowseInput) (*PageOutput, error) {
	res, err := h.pages.FetchPage(ctx, paging.PageRequest{
		Mode:         paging.ModeCategoryBrowse,
		Page:         input.Body.Page,
		CategoryID:   input.Body.CategoryID,
		Selection:    h.selection(input.Body.Filters),
		Bindings:     filter.BindingsFromServer(input.Body.Bindings),
		ActiveLevels: input.Body.ActiveLevels,
	})
	if err != nil {
		return nil, toHTTPError("browsing category", err)
	}
	return toPageOutput(res), nil
}

// BrowseAll walks a category from page 1 until the last page or the page
// cap, whichever comes first.
func (h *ListingsHandler) BrowseAll(ctx context.Context, input *BrowseAllInput) (*BrowseAllOutput, error) {
	maxPages := h.maxPages
	if n := input.Body.MaxPages; n > 0 && (maxPages <= 0 || n < maxPages) {
		maxPages = n
	}

	resp := &BrowseAllOutput{}
	resp.Body.Items = []domain.Product{}

	var last *paging.PageResult
	err := h.pages.Walk(ctx, paging.PageRequest{
		Mode:       paging.ModeCategoryBrowse,
		Page:       1,
		CategoryID: input.Body.CategoryID,
		Selection:  h.selection(input.Body.Filters),
	}, maxPages, func(page *paging.PageResult) error {
		resp.Body.Items = append(resp.Body.Items, page.Items...)
		resp.Body.Pages++
		last = page
		return nil
	})
	if err != nil {
		return nil, toHTTPError("browsing category", err)
	}

	if last != nil {
		resp.Body.Last = toPageOutput(last).Body
		resp.Body.Last.Items = []domain.Product{}
	}
	return resp, nil
}

// VisualSearch returns one visual search page. The bearer token is
// refreshed first when it is missing or about to expire. A search the
// backend rejects as unauthenticated starts a refresh in the background
// and fails with 503 so the caller retries.
func (h *ListingsHandler) VisualSearch(ctx context.Context, input *VisualSearchInput) (*PageOutput, error) {
	if _, err := h.session.Current(); err != nil {
		return nil, toHTTPError("visual search", err)
	}

	if _, err := h.refresher.RefreshIfNeeded(ctx); err != nil {
		h.logger.Warn("token refresh before visual search failed", "error", err)
	}

	res, err := h.pages.FetchPage(ctx, paging.PageRequest{
		Mode:               paging.ModeVisualSearch,
		Page:               input.Body.Page,
		Image:              input.Body.Image,
		ContinuationHandle: input.Body.ContinuationHandle,
		Selection:          h.selection(input.Body.Filters),
		Bindings:           filter.BindingsFromServer(input.Body.Bindings),
		ActiveLevels:       input.Body.ActiveLevels,
	})
	if err != nil {
		if errors.Is(err, visualsearch.ErrAuthenticationExpired) {
			h.refreshInBackground(ctx)
		}
		return nil, toHTTPError("visual search", err)
	}
	return toPageOutput(res), nil
}

// Wait blocks until background refreshes have finished.
func (h *ListingsHandler) Wait() {
	h.background.Wait()
}

func (h *ListingsHandler) refreshInBackground(ctx context.Context) {
	h.background.Add(1)
	go func() {
		defer h.background.Done()

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundRefreshTimeout)
		defer cancel()

		if err := h.refresher.Refresh(rctx); err != nil {
			h.logger.Error("background token refresh failed", "error", err)
		}
	}()
}

func (h *ListingsHandler) selection(explicit *filter.Selection) filter.Selection {
	if explicit != nil {
		return *explicit
	}
	return h.session.Selection()
}

func toPageOutput(res *paging.PageResult) *PageOutput {
	out := &PageOutput{Body: PageBody{
		Items:              res.Items,
		HasNextPage:        res.HasNextPage,
		CurrentPage:        res.CurrentPage,
		LastPage:           res.LastPage,
		TotalCount:         res.TotalCount,
		ContinuationHandle: res.ContinuationHandle,
		Bindings:           make(map[string]string, len(res.Bindings)),
		ActiveLevels:       res.ActiveLevels,
		Params:             res.Params,
	}}
	if out.Body.Items == nil {
		out.Body.Items = []domain.Product{}
	}
	for dim, name := range res.Bindings {
		out.Body.Bindings[dim.String()] = name
	}
	if out.Body.ActiveLevels == nil {
		out.Body.ActiveLevels = map[string][]string{}
	}
	if out.Body.Params == nil {
		out.Body.Params = map[string]string{}
	}
	return out
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "browse-category",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings",
		Summary:     "Browse a category",
		Description: "Fetches one category browse page from the primary backend.",
		Tags:        []string{"listings"},
		Errors: []int{
			http.StatusBadRequest, http.StatusNotFound,
			http.StatusTooManyRequests, http.StatusBadGateway,
		},
	}, h.Browse)

	huma.Register(api, huma.Operation{
		OperationID: "browse-category-all",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/all",
		Summary:     "Browse every page of a category",
		Description: "Walks a category from page 1, threading the filter state the " +
			"backend returns between pages, up to the page cap.",
		Tags: []string{"listings"},
		Errors: []int{
			http.StatusBadRequest, http.StatusNotFound,
			http.StatusTooManyRequests, http.StatusBadGateway,
		},
	}, h.BrowseAll)

	huma.Register(api, huma.Operation{
		OperationID: "visual-search",
		Method:      http.MethodPost,
		Path:        "/api/v1/visual-search",
		Summary:     "Search by image",
		Description: "Fetches one visual search page for the selected store.",
		Tags:        []string{"listings"},
		Errors: []int{
			http.StatusBadRequest, http.StatusConflict,
			http.StatusBadGateway, http.StatusServiceUnavailable,
		},
	}, h.VisualSearch)
}
