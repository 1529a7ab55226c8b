// Package queue buffers round submissions between the HTTP handler and the
// ingest workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Submission is the payload flowing through the queue.
type Submission = model.RoundSubmission

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission. Returns false if the queue is full or
	// closed and the submission was not enqueued.
	Enqueue(ctx context.Context, s Submission) bool

	// Dequeue returns a channel that receives submissions as they become
	// available. The channel is closed once the queue is closed and drained,
	// independently of ctx.
	Dequeue(ctx context.Context) <-chan Submission

	Len(ctx context.Context) int
	Cap() int

	// Close stops accepting submissions. Already queued ones can still be
	// dequeued.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Submission
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Submission, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, s Submission) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRoundRejected("queue_closed")
		return false
	}

	select {
	case q.items <- s:
		metrics.UpdateQueueSize(len(q.items))
		return true
	case <-ctx.Done():
		metrics.RecordRoundRejected("context_cancelled")
		return false
	default:
		metrics.RecordRoundRejected("queue_full")
		return false
	}
}

// Dequeue returns the receive side of the buffer. Consumers share it, so a
// submission leaves the queue only when a consumer has taken it.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Submission {
	return q.items
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

func (q *InMemoryQueue) Cap() int { return q.capacity }

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
