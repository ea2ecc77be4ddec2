package request

import "sync"

// notifyQueue is an unbounded FIFO of notifications with a coalescing signal
// channel, so the dispatcher can wait without holding the request lock.
//
// Unbounded so that committing a change never blocks the engine on a slow
// observer.
type notifyQueue struct {
	mu     sync.Mutex
	items  []Notification
	closed bool
	signal chan struct{} // buffered, size 1; closed by Close
}

func newNotifyQueue() *notifyQueue {
	return &notifyQueue{
		items:  make([]Notification, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends n. Returns false once the queue is closed.
func (q *notifyQueue) Enqueue(n Notification) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, n)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front notification without blocking.
// done is true when the queue is closed and drained.
func (q *notifyQueue) TryDequeue() (n Notification, ok bool, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Notification{}, false, q.closed
	}
	n = q.items[0]
	// Clear the slot so the request pointer does not outlive delivery.
	q.items[0] = Notification{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return n, true, false
}

// Wait returns the channel signaling that items may be available.
func (q *notifyQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued notifications.
func (q *notifyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting notifications and wakes the dispatcher. Idempotent.
func (q *notifyQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
