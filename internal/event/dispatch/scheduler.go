package dispatch

import "time"

// DeferDelay is the fixed minimal delay before a deferred task runs.
const DeferDelay = time.Millisecond

// Scheduler defers tasks to a later point of execution.
type Scheduler interface {
	// Schedule queues task to run no earlier than DeferDelay from now.
	// It never runs task before returning.
	Schedule(task func()) error
}

// SchedulerFunc is a function adapter for Scheduler.
type SchedulerFunc func(task func()) error

// Schedule implements the Scheduler interface.
func (f SchedulerFunc) Schedule(task func()) error {
	return f(task)
}

// TimerScheduler runs each task on its own timer after DeferDelay.
// The zero value is ready to use.
type TimerScheduler struct{}

// Schedule implements the Scheduler interface.
func (TimerScheduler) Schedule(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	time.AfterFunc(DeferDelay, task)
	return nil
}
