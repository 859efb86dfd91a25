package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/catalog"
)

type primaryURL struct {
	mu sync.Mutex
	u  string
}

func (p *primaryURL) set(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.u = u
}

func (p *primaryURL) PrimaryBaseURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.u
}

type hitServer struct {
	srv  *httptest.Server
	hits atomic.Int32
	auth atomic.Value
}

func newHitServer(t *testing.T) *hitServer {
	t.Helper()

	h := &hitServer{}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		h.auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/stores":
			_, _ = w.Write([]byte(`{"stores": [{"id": "de"}]}`))
		case strings.HasSuffix(r.URL.Path, "/locations"):
			_, _ = w.Write([]byte(`{"locations": [{"id": "l1"}]}`))
		case r.URL.Path == "/brands/images":
			_, _ = w.Write([]byte(`{"brands": [{"brand_id": "b1"}]}`))
		default:
			_, _ = w.Write([]byte(`{"products": [], "pagination": {"current_page": 1, "last_page": 1}}`))
		}
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func TestRouter_RoutesStoreCallsToSelectedStore(t *testing.T) {
	t.Parallel()

	bootstrapSrv := newHitServer(t)
	storeSrv := newHitServer(t)

	bootstrap, err := catalog.NewClient(bootstrapSrv.srv.URL, testCreds, catalog.WithSigner(pinnedSigner()))
	require.NoError(t, err)

	src := &primaryURL{u: storeSrv.srv.URL + "/"}
	r := catalog.NewRouter(bootstrap, src)
	ctx := context.Background()

	stores, err := r.StoreConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 1)

	_, err = r.Listing(ctx, catalog.ListingRequest{CategoryID: "7", Page: 1})
	require.NoError(t, err)
	locs, err := r.StoreLocations(ctx, "de")
	require.NoError(t, err)
	assert.Len(t, locs, 1)
	brands, err := r.BrandImages(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 1)

	assert.Equal(t, int32(1), bootstrapSrv.hits.Load())
	assert.Equal(t, int32(3), storeSrv.hits.Load())
	assert.Equal(t, storeSrv.srv.URL, r.BaseURL())

	auth, _ := storeSrv.auth.Load().(string)
	assert.True(t, strings.HasPrefix(auth, "OAuth "), auth)
}

func TestRouter_FallsBackToBootstrap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
	}{
		{name: "no store url", url: ""},
		{name: "relative store url", url: "/elsewhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bootstrapSrv := newHitServer(t)
			bootstrap, err := catalog.NewClient(bootstrapSrv.srv.URL, testCreds)
			require.NoError(t, err)

			r := catalog.NewRouter(bootstrap, &primaryURL{u: tt.url})
			_, err = r.Listing(context.Background(), catalog.ListingRequest{CategoryID: "7", Page: 1})
			require.NoError(t, err)

			assert.Equal(t, int32(1), bootstrapSrv.hits.Load())
			assert.Same(t, r.Client(), r.Client())
		})
	}
}

func TestRouter_RebindsOnStoreChange(t *testing.T) {
	t.Parallel()

	a := newHitServer(t)
	b := newHitServer(t)

	bootstrap, err := catalog.NewClient("https://bootstrap.example.com", testCreds)
	require.NoError(t, err)

	src := &primaryURL{u: a.srv.URL}
	r := catalog.NewRouter(bootstrap, src)

	first := r.Client()
	assert.Same(t, first, r.Client())

	src.set(b.srv.URL)
	r.Invalidate()
	second := r.Client()
	assert.NotSame(t, first, second)
	assert.Equal(t, b.srv.URL, second.BaseURL())

	_, err = r.BrandImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), a.hits.Load())
	assert.Equal(t, int32(1), b.hits.Load())
}

func TestClient_WithBaseURL(t *testing.T) {
	t.Parallel()

	limiter := catalog.NewRateLimiter(100, 10, 0)
	c, err := catalog.NewClient("https://a.example.com", testCreds, catalog.WithRateLimiter(limiter))
	require.NoError(t, err)

	moved, err := c.WithBaseURL("https://b.example.com/api/")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example.com/api", moved.BaseURL())
	assert.Equal(t, "https://a.example.com", c.BaseURL())

	_, err = c.WithBaseURL("b.example.com")
	require.Error(t, err)
}
