package client

import (
	"context"
	"sync"
)

// Queue is the unbounded, order-preserving buffer of pending outbound
// records. Any number of producers may Enqueue concurrently; exactly one
// consumer removes records in FIFO order.
//
// The queue is unbounded on purpose: producers must never block on a slow
// or disconnected consumer. The trade-off is unbounded memory growth if the
// consumer stalls indefinitely (for example an endless reconnect loop);
// there is no high-water mark and no drop policy.
type Queue struct {
	mu     sync.Mutex
	items  []string
	closed bool
	wake   chan struct{}
}

// NewQueue creates an empty open queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends a record. It never blocks beyond a short critical section
// and always succeeds; after Close it is a silent no-op.
func (q *Queue) Enqueue(text string) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, text)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest record, blocking while the queue
// is empty. Returns ok=false when the queue is closed and drained, or when
// ctx is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (string, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return item, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return "", false
		}

		select {
		case <-q.wake:
		case <-ctx.Done():
			return "", false
		}
	}
}

// Len returns the number of pending records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting new records. Records already queued remain
// dequeueable until drained. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}
