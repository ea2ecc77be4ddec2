package testutil

import (
	"sync"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/request"
)

// StubEngine is a request.Engine for tests. Each bound request runs Script on
// its own goroutine; Detach waits for that goroutine, which is the guarantee
// real engines give.
//
// Thread-safety: all methods are safe for concurrent use.
type StubEngine struct {
	URI string

	// BindErr makes Bind refuse every request.
	BindErr error
	// Script runs once per bound request. Nil leaves requests Active.
	Script func(r request.Request)

	mu       sync.Mutex
	binds    []request.Request
	detaches []request.Request
	running  map[request.Request]chan struct{}
}

// NewStubEngine returns a stub for managerURI running script.
func NewStubEngine(managerURI string, script func(r request.Request)) *StubEngine {
	return &StubEngine{URI: managerURI, Script: script}
}

// ManagerURI implements request.Engine.
func (e *StubEngine) ManagerURI() string { return e.URI }

// Bind implements request.Engine.
func (e *StubEngine) Bind(r request.Request) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.binds = append(e.binds, r)
	if e.BindErr != nil {
		return e.BindErr
	}
	if e.Script == nil {
		return nil
	}
	if e.running == nil {
		e.running = make(map[request.Request]chan struct{})
	}
	done := make(chan struct{})
	e.running[r] = done
	go func() {
		defer close(done)
		e.Script(r)
	}()
	return nil
}

// Detach implements request.Engine. It blocks until the script of r returned.
func (e *StubEngine) Detach(r request.Request) {
	e.mu.Lock()
	e.detaches = append(e.detaches, r)
	done := e.running[r]
	delete(e.running, r)
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Binds returns how many times Bind was called.
func (e *StubEngine) Binds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.binds)
}

// Detaches returns how many times Detach was called.
func (e *StubEngine) Detaches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.detaches)
}

// IsDetached reports whether r was detached.
func (e *StubEngine) IsDetached(r request.Request) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range e.detaches {
		if d == r {
			return true
		}
	}
	return false
}

// Publish hands items to r through the typed engine-side API.
// Returns false for kinds without item results or when r rejected them.
func Publish(r request.Request, items ...item.Item) bool {
	switch req := r.(type) {
	case *request.OccurrenceFetchRequest:
		return req.PublishOccurrences(items...)
	case *request.FetchForExportRequest:
		return req.PublishItems(items...)
	case *request.FetchRequest:
		return req.PublishItems(items...)
	default:
		return false
	}
}

// PublishThenFinish is a script publishing each batch in order and finishing
// with err.
func PublishThenFinish(err error, batches ...[]item.Item) func(request.Request) {
	return func(r request.Request) {
		for _, b := range batches {
			Publish(r, b...)
		}
		r.Core().Finish(err)
	}
}

// BlockUntilCanceled is a script that keeps r Active until its context is
// canceled, then reports the cancellation as the engine would.
func BlockUntilCanceled(r request.Request) {
	<-r.Core().Context().Done()
	r.Core().Finish(request.ErrCanceled)
}
