package paging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/catalog"
	catalogMocks "github.com/donaldgifford/storefront-query/internal/catalog/mocks"
	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/paging"
	"github.com/donaldgifford/storefront-query/internal/visualsearch"
	vsMocks "github.com/donaldgifford/storefront-query/internal/visualsearch/mocks"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

func newCoordinator(t *testing.T) (*paging.Coordinator, *catalogMocks.MockLister, *vsMocks.MockSearcher) {
	t.Helper()

	lister := catalogMocks.NewMockLister(t)
	searcher := vsMocks.NewMockSearcher(t)
	c := paging.NewCoordinator(lister, func() visualsearch.Searcher { return searcher })
	return c, lister, searcher
}

func TestFetchPage_ValidationBeforeIO(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     paging.PageRequest
		wantErr error
	}{
		{
			name:    "visual search page 2 without handle",
			req:     paging.PageRequest{Mode: paging.ModeVisualSearch, Page: 2, Image: "aW1n"},
			wantErr: paging.ErrContinuationTokenMissing,
		},
		{
			name:    "visual search page 1 without image",
			req:     paging.PageRequest{Mode: paging.ModeVisualSearch, Page: 1},
			wantErr: paging.ErrImageMissing,
		},
		{
			name:    "page zero",
			req:     paging.PageRequest{Mode: paging.ModeCategoryBrowse, Page: 0, CategoryID: "c"},
			wantErr: paging.ErrInvalidPage,
		},
		{
			name:    "browse without category",
			req:     paging.PageRequest{Mode: paging.ModeCategoryBrowse, Page: 1},
			wantErr: paging.ErrCategoryMissing,
		},
		{
			name:    "unknown mode",
			req:     paging.PageRequest{Page: 1},
			wantErr: paging.ErrUnknownMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// No expectations: any backend call fails the test.
			c, _, _ := newCoordinator(t)

			got, err := c.FetchPage(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestFetchPage_CategoryBrowse(t *testing.T) {
	t.Parallel()

	c, lister, _ := newCoordinator(t)

	lister.EXPECT().
		Listing(mock.Anything, catalog.ListingRequest{
			CategoryID: "shoes",
			Page:       3,
			Params:     filter.Params{"category3": "10", "category2": "20", "brand": "4"},
		}).
		Return(&catalog.ListingResponse{
			Products:     []domain.Product{{ID: "p1"}, {ID: "p2"}},
			Pagination:   domain.Pagination{CurrentPage: 3, LastPage: 3, Total: 42, HasNext: false},
			Bindings:     filter.Bindings{filter.Brand: "manufacturer"},
			ActiveLevels: filter.ActiveLevels{"category3": {"10"}, "category2": {"20"}},
		}, nil).
		Once()

	got, err := c.FetchPage(context.Background(), paging.PageRequest{
		Mode:         paging.ModeCategoryBrowse,
		Page:         3,
		CategoryID:   "shoes",
		Selection:    filter.Selection{Category: []string{"20", "10"}, Brand: []string{"4"}},
		ActiveLevels: filter.ActiveLevels{"category3": {"10"}},
	})
	require.NoError(t, err)

	assert.Len(t, got.Items, 2)
	assert.False(t, got.HasNextPage)
	assert.Equal(t, 3, got.CurrentPage)
	assert.Equal(t, 3, got.LastPage)
	assert.Equal(t, 42, got.TotalCount)
	assert.Empty(t, got.ContinuationHandle)
	assert.Equal(t, "manufacturer", got.Bindings[filter.Brand])
	assert.Equal(t, "gender", got.Bindings[filter.Gender], "unechoed bindings keep prior values")
	assert.Equal(t, filter.ActiveLevels{"category3": {"10"}, "category2": {"20"}}, got.ActiveLevels)
	assert.Equal(t, filter.Params{"category3": "10", "category2": "20", "brand": "4"}, got.Params)
}

func TestFetchPage_HasNextIsVerbatim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		items   int
		hasNext bool
	}{
		{name: "short page that is not last", items: 1, hasNext: true},
		{name: "full page that is last", items: 20, hasNext: false},
		{name: "empty page that is not last", items: 0, hasNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, lister, _ := newCoordinator(t)
			lister.EXPECT().Listing(mock.Anything, mock.Anything).Return(&catalog.ListingResponse{
				Products:   make([]domain.Product, tt.items),
				Pagination: domain.Pagination{CurrentPage: 1, HasNext: tt.hasNext},
			}, nil)

			got, err := c.FetchPage(context.Background(), paging.PageRequest{
				Mode: paging.ModeCategoryBrowse, Page: 1, CategoryID: "c",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.hasNext, got.HasNextPage)
		})
	}
}

func TestFetchPage_VisualSearch(t *testing.T) {
	t.Parallel()

	c, _, searcher := newCoordinator(t)

	searcher.EXPECT().
		Search(mock.Anything, visualsearch.SearchRequest{Page: 1, Image: "aW1n", Params: filter.Params{}}).
		Return(&visualsearch.SearchResponse{
			Products:     []domain.Product{{ID: "p1", Similarity: 0.9}},
			Pagination:   domain.Pagination{CurrentPage: 1, LastPage: 2, HasNext: true},
			Continuation: "handle-2",
		}, nil).
		Once()

	searcher.EXPECT().
		Search(mock.Anything, visualsearch.SearchRequest{Page: 2, Continuation: "handle-2", Params: filter.Params{}}).
		Return(&visualsearch.SearchResponse{
			Pagination: domain.Pagination{CurrentPage: 2, LastPage: 2},
		}, nil).
		Once()

	first, err := c.FetchPage(context.Background(), paging.PageRequest{
		Mode: paging.ModeVisualSearch, Page: 1, Image: "aW1n",
	})
	require.NoError(t, err)
	assert.Equal(t, "handle-2", first.ContinuationHandle)
	assert.True(t, first.HasNextPage)

	// The image is not resent once a handle exists.
	second, err := c.FetchPage(context.Background(), paging.PageRequest{
		Mode:               paging.ModeVisualSearch,
		Page:               2,
		Image:              "aW1n",
		ContinuationHandle: first.ContinuationHandle,
		Bindings:           first.Bindings,
		ActiveLevels:       first.ActiveLevels,
	})
	require.NoError(t, err)
	assert.False(t, second.HasNextPage)
}

func TestFetchPage_ErrorReturnsNoResult(t *testing.T) {
	t.Parallel()

	c, _, searcher := newCoordinator(t)
	searcher.EXPECT().Search(mock.Anything, mock.Anything).Return(nil, visualsearch.ErrAuthenticationExpired)

	got, err := c.FetchPage(context.Background(), paging.PageRequest{
		Mode: paging.ModeVisualSearch, Page: 1, Image: "x",
	})
	require.ErrorIs(t, err, visualsearch.ErrAuthenticationExpired)
	assert.Nil(t, got)
}

func TestFetchPage_KeepsLevelsWhenNotEchoed(t *testing.T) {
	t.Parallel()

	c, lister, _ := newCoordinator(t)
	lister.EXPECT().Listing(mock.Anything, mock.Anything).Return(&catalog.ListingResponse{}, nil)

	prior := filter.ActiveLevels{"category3": {"10"}}
	got, err := c.FetchPage(context.Background(), paging.PageRequest{
		Mode: paging.ModeCategoryBrowse, Page: 1, CategoryID: "c", ActiveLevels: prior,
	})
	require.NoError(t, err)
	assert.Equal(t, prior, got.ActiveLevels)
	assert.Equal(t, filter.DefaultBindings(), got.Bindings)
}

func TestFetchPage_ConfiguredDefaults(t *testing.T) {
	t.Parallel()

	lister := catalogMocks.NewMockLister(t)
	c := paging.NewCoordinator(lister, nil, paging.WithResolver(filter.Resolver{
		DefaultCategoryParam: "cat_l1",
		Fallbacks:            map[filter.Dimension]string{filter.Brand: "marke"},
	}))

	lister.EXPECT().
		Listing(mock.Anything, catalog.ListingRequest{
			CategoryID: "c",
			Page:       1,
			Params:     filter.Params{"cat_l1": "5", "marke": "7"},
		}).
		Return(&catalog.ListingResponse{}, nil).
		Once()

	got, err := c.FetchPage(context.Background(), paging.PageRequest{
		Mode:       paging.ModeCategoryBrowse,
		Page:       1,
		CategoryID: "c",
		Selection:  filter.Selection{Category: []string{"5"}, Brand: []string{"7"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cat_l1", got.Bindings[filter.Category])
	assert.Equal(t, "marke", got.Bindings[filter.Brand])
}

func TestWalk(t *testing.T) {
	t.Parallel()

	t.Run("threads echo between pages until last", func(t *testing.T) {
		t.Parallel()

		c, lister, _ := newCoordinator(t)
		sel := filter.Selection{Category: []string{"10"}}

		lister.EXPECT().
			Listing(mock.Anything, catalog.ListingRequest{CategoryID: "c", Page: 1, Params: filter.Params{"category2": "10"}}).
			Return(&catalog.ListingResponse{
				Pagination:   domain.Pagination{CurrentPage: 1, HasNext: true},
				ActiveLevels: filter.ActiveLevels{"category3": {"10"}},
			}, nil).Once()
		lister.EXPECT().
			Listing(mock.Anything, catalog.ListingRequest{CategoryID: "c", Page: 2, Params: filter.Params{"category3": "10"}}).
			Return(&catalog.ListingResponse{
				Pagination: domain.Pagination{CurrentPage: 2, HasNext: false},
			}, nil).Once()

		var pages []int
		err := c.Walk(context.Background(), paging.PageRequest{
			Mode: paging.ModeCategoryBrowse, Page: 1, CategoryID: "c", Selection: sel,
		}, 5, func(p *paging.PageResult) error {
			pages = append(pages, p.CurrentPage)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, pages)
	})

	t.Run("stops at max pages", func(t *testing.T) {
		t.Parallel()

		c, lister, _ := newCoordinator(t)
		lister.EXPECT().Listing(mock.Anything, mock.Anything).Return(&catalog.ListingResponse{
			Pagination: domain.Pagination{HasNext: true},
		}, nil).Times(2)

		calls := 0
		err := c.Walk(context.Background(), paging.PageRequest{
			Mode: paging.ModeCategoryBrowse, Page: 1, CategoryID: "c",
		}, 2, func(*paging.PageResult) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("ErrStop ends without error", func(t *testing.T) {
		t.Parallel()

		c, lister, _ := newCoordinator(t)
		lister.EXPECT().Listing(mock.Anything, mock.Anything).Return(&catalog.ListingResponse{
			Pagination: domain.Pagination{HasNext: true},
		}, nil).Once()

		err := c.Walk(context.Background(), paging.PageRequest{
			Mode: paging.ModeCategoryBrowse, Page: 1, CategoryID: "c",
		}, 0, func(*paging.PageResult) error { return paging.ErrStop })
		require.NoError(t, err)
	})

	t.Run("callback error propagates", func(t *testing.T) {
		t.Parallel()

		c, lister, _ := newCoordinator(t)
		lister.EXPECT().Listing(mock.Anything, mock.Anything).Return(&catalog.ListingResponse{}, nil).Once()

		boom := errors.New("boom")
		err := c.Walk(context.Background(), paging.PageRequest{
			Mode: paging.ModeCategoryBrowse, Page: 1, CategoryID: "c",
		}, 3, func(*paging.PageResult) error { return boom })
		require.ErrorIs(t, err, boom)
	})

	t.Run("visual search without returned handle fails fast", func(t *testing.T) {
		t.Parallel()

		c, _, searcher := newCoordinator(t)
		searcher.EXPECT().Search(mock.Anything, mock.Anything).Return(&visualsearch.SearchResponse{
			Pagination: domain.Pagination{HasNext: true},
		}, nil).Once()

		err := c.Walk(context.Background(), paging.PageRequest{
			Mode: paging.ModeVisualSearch, Page: 1, Image: "x",
		}, 3, func(*paging.PageResult) error { return nil })
		require.ErrorIs(t, err, paging.ErrContinuationTokenMissing)
	})
}

func TestMode_Text(t *testing.T) {
	t.Parallel()

	for _, m := range []paging.Mode{paging.ModeCategoryBrowse, paging.ModeVisualSearch} {
		b, err := m.MarshalText()
		require.NoError(t, err)

		var back paging.Mode
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, m, back)
	}

	_, err := paging.ParseMode("infinite_scroll")
	require.ErrorIs(t, err, paging.ErrUnknownMode)

	_, err = paging.Mode(0).MarshalText()
	require.Error(t, err)
}
