// Package manager is the client facade over an engine: it creates requests
// bound to the engine and runs them through the mandatory teardown path.
package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/organizer/internal/engine"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/observability"
	"github.com/roach88/organizer/internal/request"
)

// Manager owns one engine and its job loop.
//
// Thread-safety: all methods are safe for concurrent use once Start returned.
type Manager struct {
	eng         *engine.Engine
	logger      *slog.Logger
	metrics     *observability.Metrics
	waitTimeout time.Duration
	engineOpts  []engine.Option

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger of the manager and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records request and engine metrics on mt.
func WithMetrics(mt *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithWaitTimeout bounds how long Execute waits for a request. Zero waits
// until the caller's context ends.
func WithWaitTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.waitTimeout = d
	}
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// New creates a Manager over s. Call Start before executing requests.
func New(s engine.Store, opts ...Option) *Manager {
	m := &Manager{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	engOpts := append([]engine.Option{
		engine.WithLogger(m.logger),
		engine.WithMetrics(m.metrics),
	}, m.engineOpts...)
	m.eng = engine.New(s, engOpts...)
	return m
}

// Engine returns the engine requests are bound to.
func (m *Manager) Engine() *engine.Engine { return m.eng }

// ManagerURI returns the URI of the underlying engine.
func (m *Manager) ManagerURI() string { return m.eng.ManagerURI() }

// Start runs the engine loop in a goroutine until ctx ends or Close is
// called. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		if err := m.eng.Run(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error("engine stopped", "error", err)
		}
	}()
}

// Close stops the engine and waits for its loop to return. Requests still
// queued finish with BackendUnavailable.
func (m *Manager) Close() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if done == nil {
		return nil
	}
	m.eng.Stop()
	cancel()
	<-done
	return nil
}

// NewOccurrenceFetch returns an occurrence fetch request bound to the engine.
func (m *Manager) NewOccurrenceFetch(ctx context.Context) *request.OccurrenceFetchRequest {
	return request.NewOccurrenceFetchRequest(ctx, m.eng)
}

// NewFetchForExport returns an export request bound to the engine.
func (m *Manager) NewFetchForExport(ctx context.Context) *request.FetchForExportRequest {
	return request.NewFetchForExportRequest(ctx, m.eng)
}

// NewFetch returns a fetch request bound to the engine.
func (m *Manager) NewFetch(ctx context.Context) *request.FetchRequest {
	return request.NewFetchRequest(ctx, m.eng)
}

// NewSave returns a save request bound to the engine.
func (m *Manager) NewSave(ctx context.Context) *request.SaveRequest {
	return request.NewSaveRequest(ctx, m.eng)
}

// NewRemove returns a remove request bound to the engine.
func (m *Manager) NewRemove(ctx context.Context) *request.RemoveRequest {
	return request.NewRemoveRequest(ctx, m.eng)
}

// Execute starts r, waits for it to finish and closes it. r is closed on
// every path, including a failed start and a timed-out wait, so the engine
// never outlives its reference to r. The returned error is the request error,
// or a Timeout error when the wait gave up.
func (m *Manager) Execute(ctx context.Context, r request.Request) error {
	defer r.Close()

	kind := r.Kind().String()
	if st := r.State(); st != request.Inactive {
		return request.Errorf(request.InvalidArgument, "request cannot be started in state %s", st)
	}
	started := time.Now()
	if !r.Start() {
		if r.IsFinished() {
			m.recordFinished(r, started)
			return r.Err()
		}
		return request.Errorf(request.InvalidArgument, "request cannot be started in state %s", r.State())
	}
	m.metrics.RecordRequestStarted(kind)

	waitCtx := ctx
	if m.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.waitTimeout)
		defer cancel()
	}
	if err := r.Wait(waitCtx); err != nil {
		_ = r.Close()
		m.recordFinished(r, started)
		m.logger.Warn("request wait gave up", "kind", kind, "error", err)
		return err
	}

	m.recordFinished(r, started)
	return r.Err()
}

func (m *Manager) recordFinished(r request.Request, started time.Time) {
	m.metrics.RecordRequestFinished(r.Kind().String(), r.State().String(), time.Since(started))
	m.logger.Debug("request finished", "kind", r.Kind().String(), "state", r.State().String())
}

// Occurrences fetches the occurrences of parent within rng.
func (m *Manager) Occurrences(ctx context.Context, parent item.Item, rng item.DateRange, limit int, hint item.FetchHint) ([]item.Item, error) {
	r := m.NewOccurrenceFetch(ctx)
	r.SetParentItem(parent)
	r.SetStartDate(rng.Start)
	r.SetEndDate(rng.End)
	r.SetMaxOccurrences(limit)
	r.SetFetchHint(hint)
	err := m.Execute(ctx, r)
	return r.ItemOccurrences(), err
}

// Save stores items and returns them as saved, ids filled in. On a partial
// failure the successfully saved items are returned with the error.
func (m *Manager) Save(ctx context.Context, items ...item.Item) ([]item.Item, error) {
	r := m.NewSave(ctx)
	r.SetItems(items...)
	err := m.Execute(ctx, r)
	return r.SavedItems(), err
}

// Remove deletes the items with ids and returns the ids that were removed.
func (m *Manager) Remove(ctx context.Context, ids ...itemid.ItemID) ([]itemid.ItemID, error) {
	r := m.NewRemove(ctx)
	r.SetItemIDs(ids...)
	err := m.Execute(ctx, r)
	return r.RemovedIDs(), err
}
