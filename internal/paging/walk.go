package paging

import (
	"context"
	"errors"
)

// ErrStop may be returned by a WalkFunc to end a walk without error.
var ErrStop = errors.New("stop walking")

const defaultMaxPages = 10

// WalkFunc receives each fetched page.
type WalkFunc func(page *PageResult) error

// Walk fetches pages starting at first, feeding each result's bindings,
// active levels and continuation handle into the next request. It stops
// when the server reports no next page, fn returns ErrStop, or maxPages
// pages have been fetched. maxPages <= 0 uses a default of 10.
func (c *Coordinator) Walk(ctx context.Context, first PageRequest, maxPages int, fn WalkFunc) error {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	req := first
	for range maxPages {
		page, err := c.FetchPage(ctx, req)
		if err != nil {
			return err
		}

		if err := fn(page); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}

		if !page.HasNextPage {
			return nil
		}

		req.Page++
		req.Bindings = page.Bindings
		req.ActiveLevels = page.ActiveLevels
		req.ContinuationHandle = page.ContinuationHandle
		req.Image = ""
	}

	return nil
}
