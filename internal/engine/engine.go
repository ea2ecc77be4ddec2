package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/organizer/internal/itemid"
	"github.com/roach88/organizer/internal/observability"
	"github.com/roach88/organizer/internal/request"
)

// DefaultBatchSize is the number of items published per notification.
const DefaultBatchSize = 32

// DefaultMaxOccurrences caps occurrence expansion when a request leaves the
// limit to the engine.
const DefaultMaxOccurrences = 50

// Engine executes requests against a Store.
//
// Thread-safety model:
//   - Bind(), Detach(), ManagerURI(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	store   Store
	gen     itemid.Generator
	queue   *jobQueue
	clock   request.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	batchSize      int
	defaultMaxOccs int

	mu   sync.Mutex
	jobs map[request.Request]*job
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize sets how many items are published per notification.
// Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithDefaultMaxOccurrences sets the occurrence cap applied when a request
// asks for the engine default. Values below 1 are ignored.
func WithDefaultMaxOccurrences(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultMaxOccs = n
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithGenerator sets the generator minting keys for new items.
// Default: itemid.UUIDv7Generator.
func WithGenerator(g itemid.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.gen = g
		}
	}
}

// WithMetrics records job metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine over s. Call Run to start executing requests.
func New(s Store, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		gen:            itemid.UUIDv7Generator{},
		queue:          newJobQueue(),
		logger:         slog.Default(),
		batchSize:      DefaultBatchSize,
		defaultMaxOccs: DefaultMaxOccurrences,
		jobs:           make(map[request.Request]*job),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("manager", s.ManagerURI())
	return e
}

// ManagerURI implements request.Engine.
func (e *Engine) ManagerURI() string {
	return e.store.ManagerURI()
}

// Bind implements request.Engine. It schedules r and returns immediately.
func (e *Engine) Bind(r request.Request) error {
	if !supported(r) {
		return request.Errorf(request.NotSupported, "request kind %s", r.Kind())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.jobs[r]; dup {
		return request.Errorf(request.InvalidArgument, "request already bound")
	}
	j := &job{seq: e.clock.Next(), req: r, done: make(chan struct{})}
	if !e.queue.Enqueue(j) {
		return request.Errorf(request.BackendUnavailable, "engine stopped")
	}
	e.jobs[r] = j
	e.metrics.SetJobsQueued(e.queue.Len())

	e.logger.Debug("request bound", "seq", j.seq, "kind", r.Kind().String())
	return nil
}

// Detach implements request.Engine. When it returns the engine holds no
// reference to r.
func (e *Engine) Detach(r request.Request) {
	e.mu.Lock()
	j, ok := e.jobs[r]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.jobs, r)
	running := j.running
	if !running {
		e.queue.Remove(r)
		e.metrics.SetJobsQueued(e.queue.Len())
	}
	e.mu.Unlock()

	if running {
		<-j.done
	}
	e.logger.Debug("request detached", "seq", j.seq, "was_running", running)
}

// QueueLen returns the number of pending jobs.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run starts the single-writer job loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// Jobs never fail the loop: every error is recorded on its request and
// processing continues with the next job.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")
	defer e.abandonPending()

	for {
		if ctx.Err() != nil {
			e.logger.Info("engine stopping: context cancelled")
			return ctx.Err()
		}
		if j, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			// Reported at the top of the loop.

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed, which
			// makes this case fire immediately.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the job queue. Run finishes the jobs already queued, then
// returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// process executes one job.
// CRITICAL: Called only from Run() goroutine.
func (e *Engine) process(ctx context.Context, j *job) {
	e.mu.Lock()
	if e.jobs[j.req] != j {
		// Detached while queued.
		e.mu.Unlock()
		return
	}
	j.running = true
	e.metrics.SetJobsQueued(e.queue.Len())
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if e.jobs[j.req] == j {
			delete(e.jobs, j.req)
		}
		e.mu.Unlock()
		close(j.done)
	}()

	core := j.req.Core()
	jobCtx, cancel := context.WithCancel(core.Context())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	kind := j.req.Kind().String()
	started := time.Now()
	e.logger.Debug("executing request", "seq", j.seq, "kind", kind)

	err := e.execute(jobCtx, j.req)
	if err != nil && jobCtx.Err() != nil && core.Context().Err() == nil {
		// The engine itself is stopping.
		err = request.Wrap(request.BackendUnavailable, err, "engine stopped")
	}
	core.Finish(err)

	e.metrics.RecordJob(kind, time.Since(started))
	if err != nil && !request.IsCanceled(err) {
		e.logger.Debug("request failed", "seq", j.seq, "kind", kind, "error", err)
	}
}

// abandonPending finishes every job still queued when Run returns.
func (e *Engine) abandonPending() {
	e.queue.Close()
	for _, j := range e.queue.Drain() {
		e.mu.Lock()
		owned := e.jobs[j.req] == j
		if owned {
			delete(e.jobs, j.req)
		}
		e.mu.Unlock()
		if owned {
			j.req.Core().Finish(request.Errorf(request.BackendUnavailable, "engine stopped"))
		}
		close(j.done)
	}
	e.metrics.SetJobsQueued(0)
}

// execute dispatches on the request type.
func (e *Engine) execute(ctx context.Context, r request.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch req := r.(type) {
	case *request.OccurrenceFetchRequest:
		return e.fetchOccurrences(ctx, req)
	case *request.FetchForExportRequest:
		return e.fetchForExport(ctx, req)
	case *request.FetchRequest:
		return e.fetch(ctx, req)
	case *request.SaveRequest:
		return e.save(ctx, req)
	case *request.RemoveRequest:
		return e.remove(ctx, req)
	default:
		return request.Errorf(request.NotSupported, "request type %T", r)
	}
}

func supported(r request.Request) bool {
	switch r.(type) {
	case *request.OccurrenceFetchRequest, *request.FetchForExportRequest,
		*request.FetchRequest, *request.SaveRequest, *request.RemoveRequest:
		return true
	default:
		return false
	}
}

// checkManager rejects ids owned by another manager.
func (e *Engine) checkManager(id itemid.ItemID) error {
	if id.IsNull() || id.ManagerURI() == e.store.ManagerURI() {
		return nil
	}
	return request.Errorf(request.DoesNotExist, "item %s belongs to manager %q", id, id.ManagerURI())
}

var _ request.Engine = (*Engine)(nil)
