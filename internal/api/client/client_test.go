package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/filter"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListStores(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{
			name:       "problem details",
			body:       `{"title":"Bad Gateway","status":502,"detail":"listing stores: timeout"}`,
			wantDetail: "listing stores: timeout",
		},
		{
			name:       "legacy error body",
			body:       `{"error":"internal server error"}`,
			wantDetail: "internal server error",
		},
		{
			name:       "plain text",
			body:       "upstream exploded\n",
			wantDetail: "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).ListStores(context.Background())
			require.Error(t, err)
			assert.True(t, IsStatus(err, http.StatusBadGateway))
			assert.Contains(t, err.Error(), "API error (HTTP 502)")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestClient_ListStores(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stores", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stores": []domain.StoreConfig{{ID: "de", Name: "Germany"}},
		})
	}))
	defer srv.Close()

	stores, err := New(srv.URL).ListStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "de", stores[0].ID)
}

func TestClient_SelectStore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/session/store", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "at", body["store_id"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"store":       map[string]string{"id": "at"},
			"token_state": "no_token",
		})
	}))
	defer srv.Close()

	s, err := New(srv.URL).SelectStore(context.Background(), "at")
	require.NoError(t, err)
	require.NotNil(t, s.Store)
	assert.Equal(t, "at", s.Store.ID)
	assert.Equal(t, "no_token", s.TokenState)
}

func TestClient_SetFilters(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body struct {
			Filters filter.Selection `json:"filters"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"7"}, body.Filters.Brand)
		_ = json.NewEncoder(w).Encode(map[string]any{"filters": body.Filters, "token_state": "valid"})
	}))
	defer srv.Close()

	s, err := New(srv.URL).SetFilters(context.Background(), filter.Selection{Brand: []string{"7"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, s.Filters.Brand)
}

func TestBrowseRequest_Next(t *testing.T) {
	t.Parallel()

	req := BrowseRequest{CategoryID: "10", Page: 1}
	next := req.Next(&Page{
		CurrentPage:  1,
		Bindings:     map[string]string{"brand": "manufacturer"},
		ActiveLevels: map[string][]string{"category3": {"10"}},
	})

	assert.Equal(t, 2, next.Page)
	assert.Equal(t, "10", next.CategoryID)
	assert.Equal(t, "manufacturer", next.Bindings["brand"])
	assert.Equal(t, []string{"10"}, next.ActiveLevels["category3"])
}

func TestVisualSearchRequest_Next(t *testing.T) {
	t.Parallel()

	req := VisualSearchRequest{Page: 1, Image: "aW1n"}
	next := req.Next(&Page{CurrentPage: 1, ContinuationHandle: "c2"})

	assert.Equal(t, 2, next.Page)
	assert.Empty(t, next.Image)
	assert.Equal(t, "c2", next.ContinuationHandle)
}

func TestClient_VisualSearchRetriesOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  int32
		wantErr   bool
		wantCalls int32
	}{
		{name: "success first time", failures: 0, wantCalls: 1},
		{name: "retry after re-authentication", failures: 1, wantCalls: 2},
		{name: "gives up after one retry", failures: 5, wantErr: true, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte(`{"detail":"visual search: re-authenticating"}`))
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "current_page": 1})
			}))
			defer srv.Close()

			c := New(srv.URL, WithRetryDelay(time.Millisecond))
			p, err := c.VisualSearch(context.Background(), VisualSearchRequest{Page: 1, Image: "aW1n"})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, p.CurrentPage)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_BrowseAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings/all", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "10", body["category_id"])
		assert.InDelta(t, 2, body["max_pages"], 0)
		assert.NotContains(t, body, "filters")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"a"},{"id":"b"}],"pages":2,"last":{"current_page":2,"has_next_page":true}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).BrowseAll(context.Background(), "10", nil, 2)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Pages)
	assert.True(t, res.Last.HasNextPage)
}
