package refresh_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/provision"
	"github.com/donaldgifford/storefront-query/internal/refresh"
	"github.com/donaldgifford/storefront-query/internal/token"
)

type fakeEndpoint struct {
	calls atomic.Int32
	tok   string
	ttl   time.Duration
	err   error
	gotKey atomic.Value
}

func (f *fakeEndpoint) RequestToken(_ context.Context, apiKey string) (string, time.Duration, error) {
	f.calls.Add(1)
	f.gotKey.Store(apiKey)
	if f.err != nil {
		return "", 0, f.err
	}
	return f.tok, f.ttl, nil
}

type staticKey string

func (k staticKey) VisualSearchToken() string { return string(k) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func endpointOf(f *fakeEndpoint) refresh.EndpointFunc {
	return func() refresh.TokenEndpoint { return f }
}

func TestRefresher_RefreshIfNeeded(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		setup    func(s *token.Store)
		wantRan  bool
		wantCall int32
	}{
		{
			name:     "no token refreshes",
			setup:    func(*token.Store) {},
			wantRan:  true,
			wantCall: 1,
		},
		{
			name:     "valid token is left alone",
			setup:    func(s *token.Store) { s.Save("old", time.Hour) },
			wantRan:  false,
			wantCall: 0,
		},
		{
			name:     "expiring soon refreshes",
			setup:    func(s *token.Store) { s.Save("old", 4*time.Minute) },
			wantRan:  true,
			wantCall: 1,
		},
		{
			name:     "expired refreshes",
			setup:    func(s *token.Store) { s.Restore(token.Snapshot{Token: "old", Expiry: base.Add(-time.Minute)}) },
			wantRan:  true,
			wantCall: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tokens := token.NewStore(token.WithNowFunc(func() time.Time { return base }))
			tt.setup(tokens)

			ep := &fakeEndpoint{tok: "new", ttl: time.Hour}
			r := refresh.NewRefresher(tokens, endpointOf(ep), staticKey("key"))

			ran, err := r.RefreshIfNeeded(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantRan, ran)
			assert.Equal(t, tt.wantCall, ep.calls.Load())

			if tt.wantRan {
				tok, ok := tokens.Current()
				require.True(t, ok)
				assert.Equal(t, "new", tok)
				assert.Equal(t, base.Add(time.Hour), tokens.Expiry())
				assert.Equal(t, "key", ep.gotKey.Load())
			}
		})
	}
}

func TestRefresher_Refresh_NoAPIKey(t *testing.T) {
	t.Parallel()

	ep := &fakeEndpoint{tok: "new", ttl: time.Hour}
	r := refresh.NewRefresher(token.NewStore(), endpointOf(ep), staticKey(""))

	err := r.Refresh(context.Background())
	require.ErrorIs(t, err, refresh.ErrNoAPIKey)
	assert.Zero(t, ep.calls.Load())
}

func TestRefresher_Refresh_EndpointError(t *testing.T) {
	t.Parallel()

	tokens := token.NewStore()
	tokens.Save("keep", time.Hour)

	ep := &fakeEndpoint{err: errors.New("boom")}
	r := refresh.NewRefresher(tokens, endpointOf(ep), staticKey("key"), refresh.WithLogger(quietLogger()))

	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	tok, ok := tokens.Current()
	require.True(t, ok)
	assert.Equal(t, "keep", tok)
}

func TestRefresher_Refresh_CollapsesBursts(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	tokens := token.NewStore(token.WithNowFunc(clock))
	ep := &fakeEndpoint{tok: "new", ttl: time.Hour}
	r := refresh.NewRefresher(tokens, endpointOf(ep), staticKey("key"), refresh.WithNowFunc(clock))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Refresh(context.Background()))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ep.calls.Load())

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, int32(2), ep.calls.Load())
}

func TestProvisionedEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/token", r.URL.Path)
		_, _ = w.Write([]byte(`{"access_token": "from-server", "expires_in": 600}`))
	}))
	t.Cleanup(srv.Close)

	tokens := token.NewStore()
	p, err := provision.New(provision.BaseURLFunc(func() string { return srv.URL }), tokens)
	require.NoError(t, err)

	r := refresh.NewRefresher(tokens, refresh.ProvisionedEndpoint(p), staticKey("key"))
	require.NoError(t, r.Refresh(context.Background()))

	tok, ok := tokens.Current()
	require.True(t, ok)
	assert.Equal(t, "from-server", tok)
	assert.Equal(t, token.Valid, tokens.State())
}
