//go:build unit

package pagination_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/pagination"
)

// numberedPages serves pages of the given sizes with page-number cursors.
func numberedPages(sizes ...int) (pagination.FetchFunc[int], *int) {
	calls := 0
	return func(_ context.Context, cursor string) ([]int, string, error) {
		calls++
		page := pagination.PageNumber(cursor)
		if page == 0 {
			page = 1
		}
		items := make([]int, sizes[page-1])
		for i := range items {
			items[i] = page*100 + i
		}
		next := 0
		if page < len(sizes) {
			next = page + 1
		}
		return items, pagination.NextCursor(next), nil
	}, &calls
}

func TestPages(t *testing.T) {
	t.Parallel()

	t.Run("should walk every page until the listing ends", func(t *testing.T) {
		t.Parallel()

		// given
		fetch, calls := numberedPages(2, 2, 1)

		// when
		total, err := pagination.Count(pagination.Pages(context.Background(), 10, fetch))

		// then
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, 3, *calls)
	})

	t.Run("should stop at the cap and report it", func(t *testing.T) {
		t.Parallel()

		// given
		fetch, calls := numberedPages(1, 1, 1, 1)

		// when
		total, err := pagination.Count(pagination.Pages(context.Background(), 2, fetch))

		// then
		require.ErrorIs(t, err, pagination.ErrPageLimitReached)
		assert.Equal(t, 2, total)
		assert.Equal(t, 2, *calls)
	})

	t.Run("should stop fetching once the item is found", func(t *testing.T) {
		t.Parallel()

		// given
		fetch, calls := numberedPages(2, 2, 2)

		// when
		item, found, err := pagination.Find(pagination.Pages(context.Background(), 10, fetch),
			func(n int) bool { return n == 201 })

		// then
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 201, item)
		assert.Equal(t, 2, *calls)
	})

	t.Run("should report absence only after the whole listing", func(t *testing.T) {
		t.Parallel()

		// given
		fetch, _ := numberedPages(1, 1)

		// when
		_, found, err := pagination.Find(pagination.Pages(context.Background(), 10, fetch),
			func(n int) bool { return n == 999 })

		// then
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("should surface a fetch failure", func(t *testing.T) {
		t.Parallel()

		// given
		failure := errors.New("502 Bad Gateway")
		fetch := func(context.Context, string) ([]int, string, error) { return nil, "", failure }

		// when
		_, err := pagination.Count(pagination.Pages(context.Background(), 10, fetch))

		// then
		require.ErrorIs(t, err, failure)
	})

	t.Run("should not fetch when the context is done", func(t *testing.T) {
		t.Parallel()

		// given
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fetch, calls := numberedPages(1)

		// when
		_, err := pagination.Count(pagination.Pages(ctx, 10, fetch))

		// then
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, *calls)
	})
}

func TestCursorConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, pagination.PageNumber(""))
	assert.Equal(t, 3, pagination.PageNumber("3"))
	assert.Empty(t, pagination.NextCursor(0))
	assert.Equal(t, "4", pagination.NextCursor(4))
}
