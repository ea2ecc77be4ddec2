package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/request"
	"github.com/roach88/organizer/internal/testutil"
)

func TestPutGetDelete(t *testing.T) {
	s := New(testutil.TestManager)
	ctx := context.Background()

	ev := testutil.Event("a", "A", "2026-03-02T09:00:00Z")
	require.NoError(t, s.Put(ctx, ev))
	ev.DisplayLabel = "A2"
	require.NoError(t, s.Put(ctx, ev))
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.DisplayLabel)

	got.DisplayLabel = "mutated"
	again, _ := s.Get(ctx, ev.ID)
	assert.Equal(t, "A2", again.DisplayLabel)

	require.NoError(t, s.Delete(ctx, ev.ID))
	_, err = s.Get(ctx, ev.ID)
	assert.ErrorIs(t, err, request.ErrDoesNotExist)
	assert.ErrorIs(t, s.Delete(ctx, ev.ID), request.ErrDoesNotExist)
}

func TestForeignAndNullIDs(t *testing.T) {
	s := New(testutil.TestManager)
	ctx := context.Background()

	_, err := s.Get(ctx, itemid.ItemID{})
	assert.Equal(t, request.InvalidArgument, request.CodeOf(err))
	_, err = s.Get(ctx, itemid.LocalItemID("organizer:other", "a"))
	assert.Equal(t, request.DoesNotExist, request.CodeOf(err))
}

func TestExceptions(t *testing.T) {
	s := New(testutil.TestManager)
	ctx := context.Background()

	parent := testutil.Daily("p", "Standup", "2026-03-02T09:00:00Z", 5)
	require.NoError(t, s.Put(ctx, parent))

	occ := testutil.Occurrences(parent, 3)
	occ[2].ID = testutil.ID("x2")
	occ[1].ID = testutil.ID("x1")
	occ[1].Start = occ[1].Start.Add(2 * time.Hour)
	occ[1].End = occ[1].End.Add(2 * time.Hour)
	require.NoError(t, s.Put(ctx, occ[2]))
	require.NoError(t, s.Put(ctx, occ[1]))

	dup := occ[1]
	dup.ID = testutil.ID("x3")
	assert.Equal(t, request.InvalidArgument, request.CodeOf(s.Put(ctx, dup)))

	orphan := occ[0]
	orphan.ID = testutil.ID("x0")
	orphan.ParentID = testutil.ID("missing")
	assert.Equal(t, request.DoesNotExist, request.CodeOf(s.Put(ctx, orphan)))

	got, err := s.Exceptions(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].ID.Equal(testutil.ID("x1")))

	require.NoError(t, s.Delete(ctx, parent.ID))
	assert.Equal(t, 0, s.Len())
}

func TestList(t *testing.T) {
	s := New(testutil.TestManager)
	ctx := context.Background()

	for _, it := range []item.Item{
		testutil.Event("b", "Beta", "2026-03-03T09:00:00Z"),
		testutil.Event("a", "alpha", "2026-03-04T09:00:00Z"),
		testutil.Event("c", "Gamma", "2026-05-01T09:00:00Z"),
	} {
		require.NoError(t, s.Put(ctx, it))
	}

	got, err := s.List(ctx, filter.Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].ID.Equal(testutil.ID("a")), "id order without sorting")

	got, err = s.List(ctx, filter.Query{
		Range:   item.NewDateRange(nil, testutil.TimePtr("2026-03-31T00:00:00Z")),
		Sorting: []filter.SortOrder{{Field: filter.SortByLabel}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].DisplayLabel)
	assert.Equal(t, "Beta", got[1].DisplayLabel)

	ctx2, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.List(ctx2, filter.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
