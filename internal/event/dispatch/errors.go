package dispatch

import "errors"

// Sentinel errors for the dispatch package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running pool.
	ErrAlreadyRunning = errors.New("dispatcher is already running")

	// ErrNotRunning is returned when tasks are scheduled on a stopped pool or loop.
	ErrNotRunning = errors.New("dispatcher is not running")

	// ErrQueueFull is returned when the pool queue is full and cannot accept more tasks.
	ErrQueueFull = errors.New("task queue is full")

	// ErrNilTask is returned when a nil task is scheduled.
	ErrNilTask = errors.New("task cannot be nil")
)
