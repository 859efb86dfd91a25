package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/storefront-query/internal/catalog"
	"github.com/donaldgifford/storefront-query/internal/paging"
	"github.com/donaldgifford/storefront-query/internal/refresh"
	"github.com/donaldgifford/storefront-query/internal/session"
	"github.com/donaldgifford/storefront-query/internal/visualsearch"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// toHTTPError maps a domain error to a huma status error. msg prefixes the
// detail.
func toHTTPError(msg string, err error) error {
	detail := msg + ": " + err.Error()

	switch {
	case errors.Is(err, paging.ErrInvalidPage),
		errors.Is(err, paging.ErrImageMissing),
		errors.Is(err, paging.ErrContinuationTokenMissing),
		errors.Is(err, paging.ErrCategoryMissing),
		errors.Is(err, paging.ErrUnknownMode),
		errors.Is(err, catalog.ErrCategoryRequired):
		return huma.Error400BadRequest(detail)
	case errors.Is(err, session.ErrUnknownStore),
		errors.Is(err, catalog.ErrNotFound):
		return huma.Error404NotFound(detail)
	case errors.Is(err, session.ErrNoStoreSelected),
		errors.Is(err, refresh.ErrNoAPIKey):
		return huma.Error409Conflict(detail)
	case errors.Is(err, catalog.ErrDailyLimitReached):
		return huma.Error429TooManyRequests(detail)
	case errors.Is(err, visualsearch.ErrAuthenticationExpired):
		return huma.Error503ServiceUnavailable(msg + ": visual search is re-authenticating, retry shortly")
	default:
		return huma.Error502BadGateway(detail)
	}
}
