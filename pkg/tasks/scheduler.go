// Package tasks provides the background task service used for
// fire-and-forget work such as automatic restarts and long-running
// post-start hooks.
//
// Work items are handed to a bounded queue drained by a fixed pool of
// workers. Each scheduled item runs at most once: items whose cancellation
// scope is already canceled when a worker picks them up are dropped.
package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/signalfield/adapterkit/pkg/log"
)

// Scheduler runs fire-and-forget work items against a cancellation scope.
type Scheduler interface {
	// Schedule enqueues a work item bound to ctx. The item runs at most
	// once and is skipped when ctx is canceled before it runs.
	Schedule(ctx context.Context, work func(context.Context)) error
}

// Scheduling errors.
var (
	ErrClosed  = errors.New("tasks: scheduler closed")
	ErrNilWork = errors.New("tasks: nil work item")
)

const (
	defaultWorkers = 2
	defaultBuffer  = 32
)

type job struct {
	ctx  context.Context
	work func(context.Context)
}

// Queue is a worker-pool Scheduler.
type Queue struct {
	logger log.Logger
	jobs   chan job
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// QueueOptions configures a Queue.
type QueueOptions struct {
	// Workers is the number of worker goroutines. Defaults to 2.
	Workers int

	// Buffer is the queue capacity. Defaults to 32.
	Buffer int

	// Logger receives worker diagnostics. Defaults to a no-op logger.
	Logger log.Logger
}

// NewQueue creates and starts a worker-pool scheduler.
func NewQueue(opts QueueOptions) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoop()
	}

	q := &Queue{
		logger: opts.Logger,
		jobs:   make(chan job, opts.Buffer),
		done:   make(chan struct{}),
	}
	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Schedule enqueues a work item. It blocks while the queue is full and
// returns ErrClosed once the queue has been closed.
func (q *Queue) Schedule(ctx context.Context, work func(context.Context)) error {
	if work == nil {
		return ErrNilWork
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.jobs <- job{ctx: ctx, work: work}:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the workers and waits for in-flight work to finish. Queued
// items that have not started yet are dropped.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)
	})
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case j := <-q.jobs:
			if j.ctx.Err() != nil {
				continue
			}
			q.run(j)
		}
	}
}

func (q *Queue) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("background task panicked", log.Any("panic", r))
		}
	}()
	j.work(j.ctx)
}
