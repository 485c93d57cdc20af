// Package dispatch provides callback execution and deferred scheduling for the
// event bus.
//
// # Executor
//
// Executor runs a single callback with panic recovery and timing. A callback
// that panics never takes down the publisher; the panic is reported to a
// configurable PanicHandler and captured in the Result.
//
// # Schedulers
//
// Deferred ("async") delivery hands each callback to a Scheduler. Every
// scheduler waits at least DeferDelay before running a task, so a deferred
// callback never runs before the publish that scheduled it has returned.
//
//   - TimerScheduler: one timer per task (time.AfterFunc). The default.
//     Tasks run on timer goroutines in no guaranteed order.
//
//   - Loop: a single-goroutine event loop. Tasks run in scheduling order on
//     whichever goroutine calls Run, RunPending or Drain. Use it when callbacks
//     touch state that must stay on one goroutine (a Lua VM, a UI thread).
//
//   - Pool: a bounded worker pool with graceful shutdown. Tasks are dropped
//     with ErrQueueFull when the queue is at capacity.
//
// # Usage
//
//	loop := dispatch.NewLoop()
//	_ = loop.Schedule(func() { fmt.Println("later") })
//	loop.Drain(ctx) // prints "later" after DeferDelay
package dispatch
