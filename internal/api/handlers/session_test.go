package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/api/handlers"
	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/token"
)

func decodeSession(t *testing.T, raw []byte) handlers.SessionBody {
	t.Helper()
	var body handlers.SessionBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestGetSession(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		sess       *fakeSession
		tokens     fakeTokens
		wantStore  string
		wantState  string
		wantExpiry bool
	}{
		{
			name:      "nothing selected",
			sess:      &fakeSession{},
			tokens:    fakeTokens{state: token.NoToken},
			wantState: "no_token",
		},
		{
			name: "selected store with valid token",
			sess: &fakeSession{
				current:   &testStores()[0],
				selection: filter.Selection{Brand: []string{"7"}},
			},
			tokens:     fakeTokens{state: token.Valid, expiry: expiry},
			wantStore:  "de",
			wantState:  "valid",
			wantExpiry: true,
		},
		{
			name:       "expiring token is reported",
			sess:       &fakeSession{current: &testStores()[1]},
			tokens:     fakeTokens{state: token.ExpiringSoon, expiry: expiry},
			wantStore:  "at",
			wantState:  "expiring_soon",
			wantExpiry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterSessionRoutes(api, handlers.NewSessionHandler(
				tt.sess, tt.tokens, staticURL("https://vs.de.example.com"),
			))

			resp := api.Get("/api/v1/session")
			require.Equal(t, http.StatusOK, resp.Code)
			assert.NotContains(t, resp.Body.String(), "secret-key")

			body := decodeSession(t, resp.Body.Bytes())
			assert.Equal(t, tt.wantState, body.TokenState)
			assert.Equal(t, "https://vs.de.example.com", body.VisualSearchBaseURL)
			if tt.wantStore == "" {
				assert.Nil(t, body.Store)
			} else {
				require.NotNil(t, body.Store)
				assert.Equal(t, tt.wantStore, body.Store.ID)
			}
			if tt.wantExpiry {
				require.NotNil(t, body.TokenExpiry)
				assert.True(t, expiry.Equal(*body.TokenExpiry))
			} else {
				assert.Nil(t, body.TokenExpiry)
			}
		})
	}
}

func TestSelectStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sess       *fakeSession
		body       map[string]any
		wantStatus int
		wantStore  string
	}{
		{
			name:       "selects a known store",
			sess:       &fakeSession{stores: testStores()},
			body:       map[string]any{"store_id": "at"},
			wantStatus: http.StatusOK,
			wantStore:  "at",
		},
		{
			name:       "unknown store is 404",
			sess:       &fakeSession{stores: testStores()},
			body:       map[string]any{"store_id": "xx"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty id is rejected",
			sess:       &fakeSession{stores: testStores()},
			body:       map[string]any{"store_id": ""},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "backend failure is 502",
			sess:       &fakeSession{storesErr: errors.New("timeout")},
			body:       map[string]any{"store_id": "de"},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterSessionRoutes(api, handlers.NewSessionHandler(
				tt.sess, fakeTokens{}, nil,
			))

			resp := api.Post("/api/v1/session/store", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			if tt.wantStore == "" {
				return
			}
			body := decodeSession(t, resp.Body.Bytes())
			require.NotNil(t, body.Store)
			assert.Equal(t, tt.wantStore, body.Store.ID)
		})
	}
}

func TestSetFilters(t *testing.T) {
	t.Parallel()

	t.Run("persists the selection", func(t *testing.T) {
		t.Parallel()

		sess := &fakeSession{current: &testStores()[0]}
		_, api := humatest.New(t)
		handlers.RegisterSessionRoutes(api, handlers.NewSessionHandler(sess, fakeTokens{}, nil))

		resp := api.Put("/api/v1/session/filters", map[string]any{
			"filters": map[string]any{"brand": []string{"7"}, "size": []string{"M"}},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		assert.Equal(t, filter.Selection{Brand: []string{"7"}, Size: []string{"M"}}, sess.Selection())
		assert.Equal(t, []string{"7"}, decodeSession(t, resp.Body.Bytes()).Filters.Brand)
	})

	t.Run("requires a selected store", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		handlers.RegisterSessionRoutes(api, handlers.NewSessionHandler(&fakeSession{}, fakeTokens{}, nil))

		resp := api.Put("/api/v1/session/filters", map[string]any{"filters": map[string]any{}})
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		t.Parallel()

		sess := &fakeSession{current: &testStores()[0], setErr: errors.New("disk full")}
		_, api := humatest.New(t)
		handlers.RegisterSessionRoutes(api, handlers.NewSessionHandler(sess, fakeTokens{}, nil))

		resp := api.Put("/api/v1/session/filters", map[string]any{"filters": map[string]any{}})
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}
