package request

import (
	"context"
	"time"
)

// Engine executes requests for one manager.
//
// Bind is called by Start after the request became Active. The engine must
// not do the work on the calling goroutine; it schedules the request and
// returns. A non-nil error finishes the request with FinishedWithError.
//
// Detach is called by Close. When it returns the engine must hold no
// reference to the request and must never touch it again, including from a
// job that was running at the time of the call.
type Engine interface {
	ManagerURI() string
	Bind(r Request) error
	Detach(r Request)
}

// Request is the client-facing API shared by every typed request.
type Request interface {
	Kind() Kind
	State() State
	IsActive() bool
	IsFinished() bool
	Engine() Engine
	SetEngine(e Engine) bool
	Start() bool
	Cancel() bool
	WaitForFinished(timeout time.Duration) bool
	Wait(ctx context.Context) error
	Err() error
	ErrorCode() ErrorCode
	Subscribe(fn Observer) (unsubscribe func())
	Done() <-chan struct{}
	Close() error

	// Core exposes the engine-side API. Clients should not call it.
	Core() *Base
}
