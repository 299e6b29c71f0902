// Package workers provides a bounded pool for CPU-bound work. PDF geometry
// and table extraction is dispatched here so that parsing many uploads in
// parallel cannot starve the request path.
package workers

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
)

// ErrQueueFull is returned by Submit when the task queue is at capacity.
var ErrQueueFull = errors.New("worker queue full")

// ErrStopped is returned by Submit after the pool's context is done.
var ErrStopped = errors.New("worker pool stopped")

// Task is one unit of CPU-bound work. The context is the pool's run context.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed set of worker goroutines.
type Pool struct {
	workers   int
	queueSize int
	logger    *slog.Logger

	queue chan Task

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// Config configures a new Pool.
type Config struct {
	Workers   int // Default runtime.NumCPU()
	QueueSize int // Default 256
	Logger    *slog.Logger
}

// NewPool creates a pool. Call Start before submitting work.
func NewPool(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		workers:   workers,
		queueSize: queueSize,
		logger:    logger.With("component", "workers"),
		queue:     make(chan Task, queueSize),
		done:      make(chan struct{}),
	}
}

// Start launches the worker goroutines. Workers drain the queue until the
// context is cancelled. Start is idempotent.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	p.logger.Debug("starting workers", "count", p.workers, "queue_size", p.queueSize)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-p.queue:
					task(ctx)
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(p.done)
	}()
}

// Submit queues a task. Returns ErrQueueFull when the queue is at capacity
// so callers can apply backpressure instead of blocking the request path.
func (p *Pool) Submit(task Task) error {
	select {
	case <-p.done:
		return ErrStopped
	default:
	}

	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run queues a task and blocks until it has run or ctx is cancelled.
func (p *Pool) Run(ctx context.Context, task Task) error {
	finished := make(chan struct{})
	err := p.Submit(func(poolCtx context.Context) {
		defer close(finished)
		task(poolCtx)
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDepth returns the number of queued tasks.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}
