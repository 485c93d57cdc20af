package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a single-goroutine event loop.
//
// Scheduled tasks wait in FIFO order and run on the goroutine that calls
// RunPending, Run or Drain. A task scheduled while the loop is running a turn
// is due at least DeferDelay later, so it always runs in a later turn.
type Loop struct {
	mu     sync.Mutex
	queue  []loopTask
	closed bool
	wake   chan struct{}

	executor *Executor

	// Stats
	scheduled atomic.Uint64
	executed  atomic.Uint64
	panicked  atomic.Uint64
}

type loopTask struct {
	due  time.Time
	task func()
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopPanicHandler sets the panic handler for tasks run by the loop.
func WithLoopPanicHandler(h PanicHandler) LoopOption {
	return func(l *Loop) {
		l.executor = NewExecutor(WithPanicHandler(h))
	}
}

// NewLoop creates an empty event loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:     make(chan struct{}, 1),
		executor: NewExecutor(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schedule implements the Scheduler interface.
func (l *Loop) Schedule(task func()) error {
	if task == nil {
		return ErrNilTask
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.queue = append(l.queue, loopTask{due: time.Now().Add(DeferDelay), task: task})
	l.mu.Unlock()

	l.scheduled.Add(1)

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of tasks waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// RunPending runs every task that is due now and returns how many ran.
// It does not wait for tasks that are not yet due.
func (l *Loop) RunPending() int {
	now := time.Now()
	ran := 0

	for {
		l.mu.Lock()
		if len(l.queue) == 0 || l.queue[0].due.After(now) {
			l.mu.Unlock()
			return ran
		}
		next := l.queue[0]
		l.queue[0] = loopTask{}
		l.queue = l.queue[1:]
		l.mu.Unlock()

		result := l.executor.Execute(next.task)
		l.executed.Add(1)
		if result.Panicked {
			l.panicked.Add(1)
		}
		ran++
	}
}

// Drain runs tasks until the queue is empty, waiting for tasks that are not
// yet due. Tasks scheduled by running tasks are drained too.
func (l *Loop) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.RunPending()

		due, ok := l.nextDue()
		if !ok {
			return nil
		}
		if err := sleepUntil(ctx, due); err != nil {
			return err
		}
	}
}

// Run processes tasks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()

		if l.isClosed() && l.Len() == 0 {
			return nil
		}

		var (
			t     *time.Timer
			timer <-chan time.Time
		)
		if due, ok := l.nextDue(); ok {
			t = time.NewTimer(time.Until(due))
			timer = t.C
		}

		select {
		case <-ctx.Done():
			if t != nil {
				t.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-timer:
		}
		if t != nil {
			t.Stop()
		}
	}
}

// Close stops accepting new tasks. Tasks already queued still run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stats returns loop statistics.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Scheduled: l.scheduled.Load(),
		Executed:  l.executed.Load(),
		Panicked:  l.panicked.Load(),
		Pending:   l.Len(),
	}
}

// LoopStats contains statistics for a Loop.
type LoopStats struct {
	// Scheduled is the total number of tasks accepted.
	Scheduled uint64

	// Executed is the number of tasks that have run.
	Executed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Pending is the number of tasks waiting to run.
	Pending int
}

func (l *Loop) nextDue() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return time.Time{}, false
	}
	return l.queue[0].due, true
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// sleepUntil blocks until t or until ctx is done.
func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
