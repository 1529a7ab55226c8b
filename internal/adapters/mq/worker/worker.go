// Package worker persists queued round submissions and invalidates the
// affected group's cached trophies.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/gameboard/internal/adapters/mq/queue"
	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/pkg/logger"
	"github.com/okian/gameboard/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Saver persists a round. Implemented by repository.Writer.
type Saver interface {
	SaveRound(ctx context.Context, r model.Round) (model.Round, error)
}

// Invalidator drops cached trophies of a group. Implemented by
// cache.TrophyCache.
type Invalidator interface {
	Invalidate(ctx context.Context, groupID string) bool
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Submission
}

// FailureFunc is called when a submission could not be persisted.
type FailureFunc func(ctx context.Context, s queue.Submission, err error)

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop. It returns once the queue is closed and
	// drained or Shutdown is called; ctx only scopes the per-round work.
	Run(ctx context.Context)

	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	saver       Saver
	invalidator Invalidator
	onFailure   FailureFunc
	name        string

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

var _ Worker = (*InMemoryWorker)(nil)

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, saver Saver, invalidator Invalidator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		saver:       saver,
		invalidator: invalidator,
		name:        "worker",
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-w.shutdown:
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without draining and waits for the loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, s queue.Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	saved, err := w.saver.SaveRound(ctx, s.Round)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordRoundRejected("persist")
		if w.onFailure != nil {
			w.onFailure(ctx, s, err)
		}
		return fmt.Errorf("save round %s (submission %s): %w", s.Round.ID, s.SubmissionID, err)
	}

	metrics.RecordRoundRecorded()
	if w.invalidator != nil {
		w.invalidator.Invalidate(ctx, saved.GroupID)
	}
	w.logger.Debug(ctx, "round recorded",
		logger.String("submission_id", s.SubmissionID),
		logger.String("round_id", saved.ID),
		logger.String("group_id", saved.GroupID),
	)
	return nil
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger

	closeOnce sync.Once
	stopOnce  sync.Once
	stopped   chan struct{}
}

// NewPool creates workerCount workers. A count below one uses NumCPU.
func NewPool(workerCount int, q Queue, saver Saver, invalidator Invalidator, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
		stopped: make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, saver, invalidator, workerOpts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size is the number of workers in the pool.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool. Canceling ctx closes the queue so
// no new submissions are accepted, and the workers keep running until what
// was already queued is persisted.
func (p *Pool) Start(ctx context.Context) {
	runCtx := context.WithoutCancel(ctx)
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	go func() {
		select {
		case <-ctx.Done():
			p.logger.Info(runCtx, "context done, draining queue")
			p.closeQueue(runCtx)
		case <-p.stopped:
		}
	}()
}

func (p *Pool) closeQueue(ctx context.Context) {
	p.closeOnce.Do(func() {
		closer, ok := p.queue.(interface{ Close() error })
		if !ok {
			return
		}
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	})
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stopped) })
	p.closeQueue(ctx)

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			w.stop()
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", drainCtx.Err())
	}
	return nil
}
