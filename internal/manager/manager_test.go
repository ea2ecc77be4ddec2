package manager

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/organizer/internal/engine"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/memstore"
	"github.com/roach88/organizer/internal/observability"
	"github.com/roach88/organizer/internal/request"
	"github.com/roach88/organizer/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startManager(t *testing.T, opts ...Option) (*Manager, *memstore.Store) {
	t.Helper()
	s := memstore.New(testutil.TestManager)
	m := New(s, append([]Option{WithLogger(quietLogger())}, opts...)...)
	m.Start(context.Background())
	t.Cleanup(func() { _ = m.Close() })
	return m, s
}

func TestExecute_OccurrenceFetchEndToEnd(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	m, s := startManager(t, WithMetrics(metrics))
	parent := testutil.Daily("standup", "Standup", "2026-03-01T09:00:00Z", 3)
	require.NoError(t, s.Put(context.Background(), parent))

	r := m.NewOccurrenceFetch(context.Background())
	r.SetParentItem(item.Item{ID: parent.ID})
	require.NoError(t, m.Execute(context.Background(), r))

	assert.Equal(t, request.Finished, r.State())
	assert.Len(t, r.ItemOccurrences(), 3)

	kind := request.ItemOccurrenceFetch.String()
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.RequestsStarted.WithLabelValues(kind)))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.RequestsFinished.WithLabelValues(kind, "finished")))
	assert.Equal(t, 3.0, promtest.ToFloat64(metrics.ResultsPublished.WithLabelValues(kind)))
}

func TestExecute_AlwaysCloses(t *testing.T) {
	m, _ := startManager(t)

	r := m.NewOccurrenceFetch(context.Background())
	r.SetParentItem(testutil.Event("plain", "Plain", "2026-03-01T09:00:00Z"))
	err := m.Execute(context.Background(), r)

	assert.Equal(t, request.DoesNotExist, request.CodeOf(err))
	assert.Equal(t, request.FinishedWithError, r.State())
	assert.False(t, r.Start(), "a closed request cannot be restarted")
}

func TestExecute_StartRefused(t *testing.T) {
	m, _ := startManager(t)

	r := m.NewFetch(context.Background())
	require.NoError(t, m.Execute(context.Background(), r))

	err := m.Execute(context.Background(), r)
	assert.Equal(t, request.InvalidArgument, request.CodeOf(err))
}

func TestExecute_WaitTimeout(t *testing.T) {
	// Never started: jobs stay queued until the wait gives up.
	m := New(memstore.New(testutil.TestManager), WithLogger(quietLogger()), WithWaitTimeout(20*time.Millisecond))

	r := m.NewFetch(context.Background())
	err := m.Execute(context.Background(), r)

	assert.True(t, request.IsTimeout(err))
	assert.Equal(t, request.Canceled, r.State())
	assert.Equal(t, 0, m.Engine().QueueLen(), "closing the request detached it")
}

func TestExecute_ContextCancel(t *testing.T) {
	m := New(memstore.New(testutil.TestManager), WithLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := m.NewFetch(ctx)
	err := m.Execute(ctx, r)

	require.Error(t, err)
	assert.True(t, r.IsFinished())
}

func TestSaveOccurrencesRemove(t *testing.T) {
	m, s := startManager(t, WithEngineOptions(engine.WithGenerator(itemid.NewFixedGenerator("new"))))
	ctx := context.Background()

	parent := testutil.Daily("gym", "Gym", "2026-04-01T07:00:00Z", 4)
	parent.ID = itemid.ItemID{}
	saved, err := m.Save(ctx, parent)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].ID.Equal(testutil.ID("new")))

	rng := item.NewDateRange(testutil.TimePtr("2026-04-02T00:00:00Z"), nil)
	occs, err := m.Occurrences(ctx, item.Item{ID: saved[0].ID}, rng, -1, item.FetchHint{})
	require.NoError(t, err)
	assert.Len(t, occs, 3)

	removed, err := m.Remove(ctx, saved[0].ID, testutil.ID("ghost"))
	assert.Equal(t, request.DoesNotExist, request.CodeOf(err))
	require.Len(t, removed, 1)
	assert.Equal(t, 0, s.Len())
}

func TestClose_FinishesQueuedRequests(t *testing.T) {
	m := New(memstore.New(testutil.TestManager), WithLogger(quietLogger()))
	r := m.NewFetch(context.Background())
	require.True(t, r.Start())
	defer r.Close()

	m.Start(context.Background())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "Close is idempotent")

	assert.True(t, r.WaitForFinished(time.Second))
	assert.True(t, r.IsFinished())
}
