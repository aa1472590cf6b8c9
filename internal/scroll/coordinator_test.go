package scroll

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource serves pages out of a fixed slice with skip/limit semantics and
// counts every call, optionally failing the next one.
type sliceSource struct {
	items []int
	calls int
	fail  error
}

func (s *sliceSource) FetchPage(_ context.Context, size, offset int) ([]int, error) {
	s.calls++
	if s.fail != nil {
		err := s.fail
		s.fail = nil
		return nil, err
	}
	if offset >= len(s.items) {
		return nil, nil
	}
	end := min(offset+size, len(s.items))
	return s.items[offset:end], nil
}

func newTestCoordinator(t *testing.T, pageSize, total int) (*Coordinator[int], *sliceSource) {
	t.Helper()
	c, err := NewCoordinator[int](pageSize)
	require.NoError(t, err)
	src := &sliceSource{items: ints(0, total)}
	_, err = c.Do(t.Context(), c.SetSource(src, Identity("test")))
	require.NoError(t, err)
	return c, src
}

func TestCoordinatorBootstrap(t *testing.T) {
	t.Parallel()

	c, src := newTestCoordinator(t, 10, 25)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, ints(0, 10), c.Window().Items())
	assert.Equal(t, 0, c.Window().NextOffset())
	assert.Equal(t, 1, src.calls)
}

func TestCoordinatorEndToEnd(t *testing.T) {
	t.Parallel()

	// 25-item source with page size 10: two forward crossings fill and then
	// overflow the window, the short third page exhausts the source.
	c, src := newTestCoordinator(t, 10, 25)
	ctx := t.Context()

	f := c.CrossForward()
	require.NotNil(t, f)
	assert.Equal(t, 10, f.Offset)
	_, err := c.Do(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, ints(0, 20), c.Window().Items())
	assert.False(t, c.Window().DataFinished())

	f = c.CrossForward()
	require.NotNil(t, f)
	assert.Equal(t, 20, f.Offset)
	_, err = c.Do(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, ints(5, 25), c.Window().Items())
	assert.Equal(t, 5, c.Window().PrevOffset())
	assert.True(t, c.Window().DataFinished())

	// Exhaustion suppresses any number of further forward crossings.
	calls := src.calls
	for range 5 {
		assert.Nil(t, c.CrossForward())
	}
	assert.Equal(t, calls, src.calls)
}

func TestCoordinatorForwardOffsetMonotonic(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, 5, 1000)
	ctx := t.Context()
	for i := 1; i <= 6; i++ {
		f := c.CrossForward()
		require.NotNil(t, f)
		assert.Equal(t, i*5, f.Offset)
		assert.Equal(t, i*5, c.Window().NextOffset())
		_, err := c.Do(ctx, f)
		require.NoError(t, err)
	}
}

func TestCoordinatorBackward(t *testing.T) {
	t.Parallel()

	t.Run("ignored at the head of the source", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 100)
		assert.Nil(t, c.CrossBackward())
	})

	t.Run("refetches the page before the window", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 100)
		ctx := t.Context()
		for range 2 {
			_, err := c.Do(ctx, c.CrossForward())
			require.NoError(t, err)
		}
		// Window now holds 10..30.
		require.Equal(t, 10, c.Window().PrevOffset())

		f := c.CrossBackward()
		require.NotNil(t, f)
		assert.Equal(t, DirectionBackward, f.Direction)
		assert.Equal(t, 0, f.Offset)
		res, err := c.Do(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, 10, res.Prepended)
		assert.Equal(t, ints(0, 20), c.Window().Items())
		assert.Equal(t, 0, c.Window().PrevOffset())
		// The trailing trim pulled the forward cursor back with it.
		assert.Equal(t, 10, c.Window().NextOffset())
	})

	t.Run("clamped fetch drops the overlap", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 100)
		ctx := t.Context()
		// Third page overflows: window 5..25 after trimming, prevOffset 5.
		c.win.MergeForward(ints(10, 20))
		c.win.MergeForward(ints(20, 25))
		c.win.nextOffset = 20
		require.Equal(t, 5, c.Window().PrevOffset())

		f := c.CrossBackward()
		require.NotNil(t, f)
		assert.Equal(t, 0, f.Offset)
		res, err := c.Do(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, 5, res.Prepended)
		assert.Equal(t, ints(0, 20), c.Window().Items())
		assert.Equal(t, 0, c.Window().PrevOffset())
		assert.Equal(t, 15, c.Window().NextOffset())
	})

	t.Run("short backward page keeps offsets aligned", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 100)
		ctx := t.Context()
		for range 2 {
			_, err := c.Do(ctx, c.CrossForward())
			require.NoError(t, err)
		}
		// Window holds 10..30.
		require.Equal(t, 10, c.Window().PrevOffset())

		// A source whose head shrank underneath us hands back fewer items
		// than the gap; the recorded window start must track what was
		// actually materialized, not the requested offset.
		f := c.CrossBackward()
		require.NotNil(t, f)
		require.Equal(t, 0, f.Offset)
		res, err := c.Complete(f, ints(6, 10), nil)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Prepended)
		assert.Equal(t, 6, c.Window().PrevOffset())
		assert.Equal(t, ints(6, 26), c.Window().Items())
		assert.Equal(t, 16, c.Window().NextOffset())
	})
}

func TestCoordinatorSerializesFetches(t *testing.T) {
	t.Parallel()

	c, src := newTestCoordinator(t, 10, 100)
	ctx := t.Context()
	for range 2 {
		_, err := c.Do(ctx, c.CrossForward())
		require.NoError(t, err)
	}
	require.Equal(t, 10, c.Window().PrevOffset())

	f := c.CrossForward()
	require.NotNil(t, f)

	// While the forward fetch is outstanding every crossing is dropped, in
	// both directions.
	assert.Nil(t, c.CrossForward())
	assert.Nil(t, c.CrossBackward())
	calls := src.calls

	_, err := c.Do(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, calls+1, src.calls)
	assert.NotNil(t, c.CrossBackward())
}

func TestCoordinatorFetchFailure(t *testing.T) {
	t.Parallel()

	t.Run("forward failure rolls back and retries the same page", func(t *testing.T) {
		t.Parallel()
		c, src := newTestCoordinator(t, 10, 100)
		ctx := t.Context()

		src.fail = errors.New("boom")
		f := c.CrossForward()
		require.NotNil(t, f)
		require.Equal(t, 10, f.Offset)
		_, err := c.Do(ctx, f)
		require.Error(t, err)

		assert.Equal(t, StateIdle, c.State())
		assert.Equal(t, ints(0, 10), c.Window().Items())
		assert.Equal(t, 0, c.Window().NextOffset())
		assert.False(t, c.Window().DataFinished())

		// Re-crossing asks for the same page again.
		f = c.CrossForward()
		require.NotNil(t, f)
		assert.Equal(t, 10, f.Offset)
		_, err = c.Do(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, ints(0, 20), c.Window().Items())
	})

	t.Run("backward failure leaves offsets alone", func(t *testing.T) {
		t.Parallel()
		c, src := newTestCoordinator(t, 10, 100)
		ctx := t.Context()
		for range 2 {
			_, err := c.Do(ctx, c.CrossForward())
			require.NoError(t, err)
		}
		require.Equal(t, 10, c.Window().PrevOffset())

		src.fail = errors.New("boom")
		_, err := c.Do(ctx, c.CrossBackward())
		require.Error(t, err)
		assert.Equal(t, StateIdle, c.State())
		assert.Equal(t, 10, c.Window().PrevOffset())
		assert.Equal(t, ints(10, 30), c.Window().Items())
	})

	t.Run("failed bootstrap can be reseeded", func(t *testing.T) {
		t.Parallel()
		c, err := NewCoordinator[int](10)
		require.NoError(t, err)
		src := &sliceSource{items: ints(0, 50), fail: errors.New("boom")}
		ctx := t.Context()

		_, err = c.Do(ctx, c.SetSource(src, Identity("test")))
		require.Error(t, err)
		require.Equal(t, StateIdle, c.State())

		_, err = c.Do(ctx, c.Seed())
		require.NoError(t, err)
		assert.Equal(t, ints(0, 10), c.Window().Items())

		// Seed is a bootstrap retry only.
		assert.Nil(t, c.Seed())
	})
}

func TestCoordinatorStaleIdentity(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, 10, 100)
	ctx := t.Context()
	_, err := c.Do(ctx, c.CrossForward())
	require.NoError(t, err)

	// A forward fetch goes out, then the source is swapped underneath it.
	stale := c.CrossForward()
	require.NotNil(t, stale)
	staleItems, staleErr := stale.Run(ctx)
	require.NoError(t, staleErr)

	other := &sliceSource{items: ints(1000, 1100)}
	fresh := c.SetSource(other, Identity("other"))
	res, err := c.Complete(stale, staleItems, staleErr)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, StateFetchingInitial, c.State())
	assert.Empty(t, c.Window().Items())

	_, err = c.Do(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, ints(1000, 1010), c.Window().Items())
}

func TestCoordinatorReloadSameIdentity(t *testing.T) {
	t.Parallel()

	c, src := newTestCoordinator(t, 10, 100)
	ctx := t.Context()
	_, err := c.Do(ctx, c.CrossForward())
	require.NoError(t, err)

	// A forward fetch goes out, then the same source is reinstalled under
	// the same identity token, which is what a reload does.
	old := c.CrossForward()
	require.NotNil(t, old)
	require.Equal(t, 20, old.Offset)
	oldItems, oldErr := old.Run(ctx)
	require.NoError(t, oldErr)

	fresh := c.SetSource(src, Identity("test"))
	res, err := c.Complete(old, oldItems, oldErr)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, StateFetchingInitial, c.State())
	assert.Empty(t, c.Window().Items())

	// The genuine initial page seeds the fresh window from the head.
	_, err = c.Do(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, ints(0, 10), c.Window().Items())
	assert.Equal(t, 0, c.Window().PrevOffset())
	assert.Equal(t, 0, c.Window().NextOffset())
}

func TestCoordinatorSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("idle window at the head", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 100)
		s := c.Snapshot()
		assert.Equal(t, ints(0, 10), s.Items)
		assert.Equal(t, 8, s.ForwardThreshold)
		assert.Equal(t, -1, s.BackwardThreshold)
		assert.True(t, s.AtStart)
		assert.False(t, s.LeadingIndicator)
		assert.False(t, s.TrailingIndicator)
	})

	t.Run("loading forward shows the trailing indicator", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 100)
		require.NotNil(t, c.CrossForward())
		s := c.Snapshot()
		assert.True(t, s.LoadingForward)
		assert.True(t, s.TrailingIndicator)
		assert.False(t, s.LeadingIndicator)
	})

	t.Run("trimmed window exposes the backward trigger", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 100)
		ctx := t.Context()
		for range 2 {
			_, err := c.Do(ctx, c.CrossForward())
			require.NoError(t, err)
		}
		s := c.Snapshot()
		assert.Equal(t, 2, s.BackwardThreshold)
		assert.False(t, s.AtStart)
	})

	t.Run("exhausted source hides the forward trigger", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCoordinator(t, 10, 15)
		_, err := c.Do(t.Context(), c.CrossForward())
		require.NoError(t, err)
		s := c.Snapshot()
		assert.Equal(t, -1, s.ForwardThreshold)
		assert.False(t, s.TrailingIndicator)
	})
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Identity("sqlite", "a.db"), Identity("sqlite", "a.db"))
	assert.NotEqual(t, Identity("sqlite", "a.db"), Identity("sqlite", "b.db"))
	assert.NotEqual(t, Identity("ab", "c"), Identity("a", "bc"))
}
