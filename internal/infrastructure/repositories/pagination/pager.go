// Package pagination walks paginated backend listings as a lazy sequence of
// pages with a hard cap, whatever the backend's cursor flavour.
package pagination

import (
	"context"
	"errors"
	"iter"
	"strconv"
)

// ErrPageLimitReached is yielded when more pages remain after the cap. A
// search that hits it has not seen the whole listing and must not report absence.
var ErrPageLimitReached = errors.New("page limit reached before the end of the listing")

// FetchFunc fetches the page at cursor ("" is the first page) and returns the
// cursor of the next page, or "" when it was the last one.
type FetchFunc[T any] func(ctx context.Context, cursor string) ([]T, string, error)

// Pages lazily yields pages until the listing ends, an error occurs, the
// consumer stops, or maxPages pages have been fetched.
func Pages[T any](ctx context.Context, maxPages int, fetch FetchFunc[T]) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		cursor := ""
		for page := 0; ; page++ {
			if page >= maxPages {
				yield(nil, ErrPageLimitReached)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			items, next, err := fetch(ctx, cursor)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items, nil) || next == "" {
				return
			}
			cursor = next
		}
	}
}

// Find returns the first item matching the predicate.
func Find[T any](pages iter.Seq2[[]T, error], match func(T) bool) (T, bool, error) {
	var zero T
	for items, err := range pages {
		if err != nil {
			return zero, false, err
		}
		for _, item := range items {
			if match(item) {
				return item, true, nil
			}
		}
	}
	return zero, false, nil
}

// Count sums the page sizes. Hitting the page cap is reported together with
// the partial count, which is then a lower bound.
func Count[T any](pages iter.Seq2[[]T, error]) (int, error) {
	total := 0
	for items, err := range pages {
		if err != nil {
			return total, err
		}
		total += len(items)
	}
	return total, nil
}

// PageNumber converts a page-number cursor back to the page to request (0 = backend default).
func PageNumber(cursor string) int {
	page, err := strconv.Atoi(cursor)
	if err != nil {
		return 0
	}
	return page
}

// NextCursor converts a backend "next page" number into a cursor ("" when there is none).
func NextCursor(nextPage int) string {
	if nextPage <= 0 {
		return ""
	}
	return strconv.Itoa(nextPage)
}
