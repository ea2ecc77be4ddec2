// Package engine executes organizer requests against a Store.
//
// ARCHITECTURE:
//
// Single-Writer Job Loop:
// Bind enqueues the request as a job; Engine.Run dequeues jobs one at a time
// and executes them on its own goroutine. All store writes of an engine
// therefore happen in bind order, and no request ever runs concurrently with
// another request of the same engine.
//
// Job Flow:
//  1. request.Start calls Bind, which stamps the job with a sequence number
//     and enqueues it
//  2. Run dequeues the job and reads the request parameters in one snapshot
//  3. The kind handler queries the store and publishes results in batches
//  4. The job finishes the request with its outcome
//
// Cancellation is checked between batches and between items of a save or
// remove. A canceled request has already left Active, so anything published
// after the check is dropped by the request itself.
//
// DETACH:
//
// Detach removes a pending job from the queue, or waits until a running job of
// the request has returned. request.Close cancels the request context before
// detaching and every store call takes that context, so the wait ends as soon
// as the job observes the cancellation.
//
// If Run stops, pending jobs are finished with BackendUnavailable; later
// Binds are refused with the same code.
package engine
