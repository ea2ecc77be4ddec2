package request

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// NotificationKind says what a Notification reports.
type NotificationKind int

const (
	StateChanged NotificationKind = iota + 1
	ResultsAvailable
)

// String returns the notification kind name.
func (k NotificationKind) String() string {
	switch k {
	case StateChanged:
		return "state_changed"
	case ResultsAvailable:
		return "results_available"
	default:
		return "unknown"
	}
}

// Notification is delivered to observers once per committed change.
type Notification struct {
	Seq     int64
	Kind    NotificationKind
	State   State // state at commit time
	Results int   // result count at commit time
	Request Request
}

// Observer receives notifications on the request's dispatcher goroutine.
type Observer func(Notification)

// Base carries the lifecycle shared by all request kinds. Typed requests embed
// it; its mutex also guards their parameters and results.
type Base struct {
	kind Kind
	self Request

	mu      sync.Mutex
	state   State
	err     error
	engine  Engine
	bound   bool
	closed  bool
	results int
	// binding is closed once Start's call to Engine.Bind has returned.
	binding chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	clock     Clock
	notes     *notifyQueue
	observers map[int]Observer
	nextObs   int
	dispatch  sync.Once

	logger *slog.Logger
}

func newBase(ctx context.Context, kind Kind, self Request, eng Engine) *Base {
	if ctx == nil {
		ctx = context.Background()
	}
	rctx, cancel := context.WithCancel(ctx)
	return &Base{
		kind:      kind,
		self:      self,
		state:     Inactive,
		engine:    eng,
		ctx:       rctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		notes:     newNotifyQueue(),
		observers: make(map[int]Observer),
		logger:    slog.Default().With("request", kind.String()),
	}
}

// Core returns b. It lets engines reach the engine-side API through the
// Request interface.
func (b *Base) Core() *Base { return b }

// Kind returns the request kind.
func (b *Base) Kind() Kind { return b.kind }

// State returns the current state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsActive reports whether the request is Active.
func (b *Base) IsActive() bool { return b.State() == Active }

// IsFinished reports whether the request reached a terminal state.
func (b *Base) IsFinished() bool { return b.State().IsTerminal() }

// Engine returns the engine the request is bound to, or nil.
func (b *Base) Engine() Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine
}

// SetEngine sets the executing engine. Only allowed while Inactive.
func (b *Base) SetEngine(e Engine) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Inactive || b.closed {
		return false
	}
	b.engine = e
	return true
}

// Err returns the recorded error, nil if none.
func (b *Base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// ErrorCode returns the code of the recorded error.
func (b *Base) ErrorCode() ErrorCode {
	return CodeOf(b.Err())
}

// Done is closed when the request reaches a terminal state.
func (b *Base) Done() <-chan struct{} { return b.done }

// Context is canceled when the request is canceled, finished or closed, or
// when the parent context passed at construction is done. Engines watch it.
func (b *Base) Context() context.Context { return b.ctx }

// Subscribe registers fn for notifications committed from now on.
// The returned func unregisters it.
func (b *Base) Subscribe(fn Observer) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// Start moves an Inactive request with an engine to Active and binds it.
// It returns false if the request was not Inactive, has no engine, is closed
// (also when Close ran while the engine was binding), or the engine refused it.
func (b *Base) Start() bool {
	b.mu.Lock()
	if b.state != Inactive || b.closed || b.engine == nil {
		b.mu.Unlock()
		return false
	}
	eng := b.engine
	b.state = Active
	b.bound = true
	bindDone := make(chan struct{})
	b.binding = bindDone
	b.startDispatcher()
	b.commitLocked(StateChanged)
	b.mu.Unlock()

	// A done parent context cancels the request like an explicit Cancel.
	context.AfterFunc(b.ctx, func() { b.Cancel() })

	b.logger.Debug("request started", "manager", eng.ManagerURI())
	err := eng.Bind(b.self)

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	// Close waits for this before detaching.
	close(bindDone)

	if err != nil {
		b.logger.Debug("engine refused request", "error", err)
		b.Finish(err)
		return false
	}
	return !closed
}

// Cancel moves an Active request to Canceled and cancels its Context.
// It returns false if the request was not Active.
func (b *Base) Cancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Active {
		return false
	}
	b.terminateLocked(Canceled, ErrCanceled)
	return true
}

// Wait blocks until the request reaches a terminal state or ctx is done.
// It returns a Timeout error in the latter case and an InvalidArgument error
// for a request that was never started.
func (b *Base) Wait(ctx context.Context) error {
	b.mu.Lock()
	st := b.state
	b.mu.Unlock()
	if st == Inactive {
		return Errorf(InvalidArgument, "request has not been started")
	}
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return &Error{Code: Timeout, Message: "wait for finished", Err: ctx.Err()}
	}
}

// WaitForFinished blocks until the request is terminal or timeout elapses.
// A timeout <= 0 waits indefinitely. It returns true iff the request finished.
func (b *Base) WaitForFinished(timeout time.Duration) bool {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return b.Wait(ctx) == nil
}

// Close releases the request. An Active request is canceled first, then the
// engine is detached synchronously. After Close returns the engine no longer
// references the request. Close is idempotent.
func (b *Base) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.state == Active {
		b.terminateLocked(Canceled, ErrCanceled)
	}
	eng, bound, binding := b.engine, b.bound, b.binding
	b.mu.Unlock()

	b.cancel()
	if bound && eng != nil {
		// A Bind still in flight finishes before Detach.
		if binding != nil {
			<-binding
		}
		eng.Detach(b.self)
	}
	// No further commits are possible; queued notifications still drain.
	b.notes.Close()
	b.logger.Debug("request closed")
	return nil
}

// SetState is the engine-side state update. Only terminal states are accepted
// and only while the request is Active. Finished with a recorded error
// becomes FinishedWithError; FinishedWithError without one records Unknown.
func (b *Base) SetState(s State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Active || b.closed {
		return false
	}
	switch s {
	case Active:
		return true
	case Finished:
		if b.err != nil {
			b.terminateLocked(FinishedWithError, b.err)
		} else {
			b.terminateLocked(Finished, nil)
		}
	case FinishedWithError:
		err := b.err
		if err == nil {
			err = ErrUnknown
		}
		b.terminateLocked(FinishedWithError, err)
	case Canceled:
		b.terminateLocked(Canceled, ErrCanceled)
	default:
		return false
	}
	return true
}

// SetError records err without ending the request. Nil clears it.
func (b *Base) SetError(err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Active || b.closed {
		return false
	}
	b.err = err
	return true
}

// Finish ends an Active request: Finished for nil, Canceled for cancellation
// errors, FinishedWithError otherwise. Results published so far are kept.
func (b *Base) Finish(err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Active || b.closed {
		return false
	}
	if err == nil {
		err = b.err
	}
	switch {
	case err == nil:
		b.terminateLocked(Finished, nil)
	case CodeOf(err) == CodeCanceled:
		b.terminateLocked(Canceled, err)
	default:
		b.terminateLocked(FinishedWithError, err)
	}
	return true
}

// publish runs apply under the lock if the request accepts engine output. n is
// the number of results added; a ResultsAvailable notification is committed
// only when n > 0, so per-index errors stay silent until the terminal
// StateChanged.
func (b *Base) publish(n int, apply func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Active || b.closed {
		return false
	}
	apply()
	if n > 0 {
		b.results += n
		b.commitLocked(ResultsAvailable)
	}
	return true
}

// setParam runs apply under the lock. Parameters may change in any state; a
// change while Active races the engine's read.
func (b *Base) setParam(name string, apply func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Active {
		b.logger.Debug("parameter changed while active; engine may not observe it", "param", name)
	}
	apply()
}

// read runs fn under the lock.
func (b *Base) read(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

// terminateLocked performs the single terminal transition. Caller holds mu and
// has checked that the state is Active.
func (b *Base) terminateLocked(s State, err error) {
	b.state = s
	b.err = err
	close(b.done)
	b.cancel()
	b.commitLocked(StateChanged)
	b.notes.Close()
	b.logger.Debug("request finished", "state", s.String(), "error", err)
}

func (b *Base) commitLocked(kind NotificationKind) {
	b.notes.Enqueue(Notification{
		Seq:     b.clock.Next(),
		Kind:    kind,
		State:   b.state,
		Results: b.results,
		Request: b.self,
	})
}

func (b *Base) startDispatcher() {
	b.dispatch.Do(func() { go b.runDispatcher() })
}

// runDispatcher delivers queued notifications in order until the queue is
// closed and drained.
func (b *Base) runDispatcher() {
	for {
		n, ok, done := b.notes.TryDequeue()
		if done {
			return
		}
		if !ok {
			<-b.notes.Wait()
			continue
		}
		b.deliver(n)
	}
}

func (b *Base) deliver(n Notification) {
	b.mu.Lock()
	obs := make([]Observer, 0, len(b.observers))
	for id := 0; id < b.nextObs; id++ {
		if fn, ok := b.observers[id]; ok {
			obs = append(obs, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range obs {
		fn(n)
	}
}
