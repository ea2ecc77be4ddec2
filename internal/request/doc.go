// Package request implements asynchronous organizer requests: the lifecycle
// shared by every request kind, the contract between a request and the engine
// executing it, and one typed request per operation.
//
// LIFECYCLE:
//
//	Inactive --Start--> Active --+--> Finished
//	                             +--> FinishedWithError
//	                             +--> Canceled
//
// Terminal states are final. A request reaches exactly one of them, exactly
// once. Start never re-enters Inactive.
//
// THREAD-SAFETY MODEL:
//
// Each request owns one mutex guarding its parameters, results, state and
// error. Client calls and engine calls take it for O(1) field access only; it
// is never held across engine computation, store I/O or observer callbacks.
// There is no global lock, so concurrent requests never contend with each
// other.
//
// NOTIFICATIONS:
//
// Every committed state change and every result publish is stamped with a
// sequence number from the request's logical clock and queued. A single
// dispatcher goroutine per request delivers the queue to observers in commit
// order. Observers run outside the lock and may call any getter; what they
// read is at least as current as the notification they received. A blocking
// observer delays later notifications of the same request but never the
// engine, and WaitForFinished does not depend on delivery.
//
// ENGINE CONTRACT:
//
// Start binds the request to its Engine (Engine.Bind), which schedules the
// work on its own goroutine. The engine reads parameters through the typed
// getters, publishes partial results through the Publish* methods and ends the
// request with Finish or SetState. These engine-side calls are accepted only
// while the request is Active; afterwards they are ignored and report false.
// This is the single, documented behavior for contract violations: nothing
// panics.
//
// Cancel is cooperative. The request moves to Canceled immediately and its
// Context is canceled; the engine should stop when it observes Context().Done()
// but anything it publishes afterwards is discarded.
//
// TEARDOWN:
//
// Close must be called once a request is no longer needed (defer r.Close()
// right after construction). It cancels an Active request and calls
// Engine.Detach synchronously; engines guarantee that once Detach returns they
// hold no reference to the request and will not touch it again. This
// detach-before-release step is the most important safety rule in the package.
//
// PARAMETERS AFTER START:
//
// Parameter setters are accepted in every state. Once a request is Active the
// engine may already have read its parameters, so a late change may or may not
// affect the result. This is an unresolved race by contract; setters log it at
// debug level instead of rejecting the change.
package request
