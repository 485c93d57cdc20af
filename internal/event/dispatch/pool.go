package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Pool executes deferred tasks on a bounded worker pool.
// It provides bounded queuing and graceful shutdown.
type Pool struct {
	// Configuration
	queueSize   int
	workerCount int

	// State
	mu      sync.Mutex // protects queue creation/destruction
	queue   chan poolTask
	running atomic.Bool
	wg      sync.WaitGroup

	// Handlers
	panicHandler PanicHandler

	// Stats
	enqueued    atomic.Uint64
	processed   atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// poolTask is a task waiting in the pool queue.
type poolTask struct {
	due  time.Time
	task func()
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithQueueSize sets the task queue size.
func WithQueueSize(size int) PoolOption {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) PoolOption {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithPoolPanicHandler sets the panic handler for pooled tasks.
func WithPoolPanicHandler(h PanicHandler) PoolOption {
	return func(p *Pool) {
		p.panicHandler = h
	}
}

// NewPool creates a new worker pool. Call Start before scheduling.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		queueSize:    1024,
		workerCount:  4,
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start starts the worker pool.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrAlreadyRunning
	}

	p.queue = make(chan poolTask, p.queueSize)
	p.running.Store(true)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(p.queue)
	}

	return nil
}

// Stop stops the worker pool gracefully.
// It waits for all queued tasks to complete or until ctx is cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return ErrNotRunning
	}

	p.running.Store(false)
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule implements the Scheduler interface.
// Returns ErrQueueFull if the queue is at capacity.
func (p *Pool) Schedule(task func()) error {
	if task == nil {
		return ErrNilTask
	}

	// Hold the lock so Stop cannot close the queue mid-send.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return ErrNotRunning
	}

	select {
	case p.queue <- poolTask{due: time.Now().Add(DeferDelay), task: task}:
		p.enqueued.Add(1)
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

// worker processes tasks from the queue.
func (p *Pool) worker(queue <-chan poolTask) {
	defer p.wg.Done()

	executor := NewExecutor(WithPanicHandler(p.panicHandler))

	for t := range queue {
		if d := time.Until(t.due); d > 0 {
			time.Sleep(d)
		}

		result := executor.Execute(t.task)
		p.processed.Add(1)
		p.totalTimeNs.Add(result.Duration.Nanoseconds())
		if result.Panicked {
			p.panicked.Add(1)
		}
	}
}

// QueueDepth returns the current number of tasks in the queue.
// Returns 0 if the pool is not running.
func (p *Pool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return 0
	}
	return len(p.queue)
}

// IsRunning returns true if the pool is running.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	processed := p.processed.Load()
	totalNs := p.totalTimeNs.Load()

	var avgNs int64
	if processed > 0 {
		avgNs = totalNs / int64(processed)
	}

	return PoolStats{
		Enqueued:      p.enqueued.Load(),
		Processed:     processed,
		Panicked:      p.panicked.Load(),
		Dropped:       p.dropped.Load(),
		QueueDepth:    p.QueueDepth(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

// PoolStats contains statistics for a Pool.
type PoolStats struct {
	// Enqueued is the total number of tasks added to the queue.
	Enqueued uint64

	// Processed is the number of tasks that have been processed.
	Processed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped is the number of tasks dropped due to the queue being full.
	Dropped uint64

	// QueueDepth is the current number of tasks waiting in the queue.
	QueueDepth int

	// TotalDuration is the cumulative time spent processing tasks.
	TotalDuration time.Duration

	// AvgDuration is the average task processing time.
	AvgDuration time.Duration
}
