package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/catalog"
	"github.com/donaldgifford/storefront-query/internal/paging"
	"github.com/donaldgifford/storefront-query/internal/refresh"
	"github.com/donaldgifford/storefront-query/internal/session"
	"github.com/donaldgifford/storefront-query/internal/visualsearch"
)

func TestToHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: got 0", paging.ErrInvalidPage), http.StatusBadRequest},
		{paging.ErrImageMissing, http.StatusBadRequest},
		{paging.ErrContinuationTokenMissing, http.StatusBadRequest},
		{paging.ErrCategoryMissing, http.StatusBadRequest},
		{catalog.ErrCategoryRequired, http.StatusBadRequest},
		{session.ErrUnknownStore, http.StatusNotFound},
		{catalog.ErrNotFound, http.StatusNotFound},
		{session.ErrNoStoreSelected, http.StatusConflict},
		{refresh.ErrNoAPIKey, http.StatusConflict},
		{catalog.ErrDailyLimitReached, http.StatusTooManyRequests},
		{visualsearch.ErrAuthenticationExpired, http.StatusServiceUnavailable},
		{errors.New("connection refused"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()

			got := toHTTPError("op", tt.err)
			var se huma.StatusError
			require.ErrorAs(t, got, &se)
			assert.Equal(t, tt.want, se.GetStatus())
		})
	}
}
