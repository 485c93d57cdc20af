package event

import "log/slog"

// Callback is invoked when an event is published to a matching namespace.
//
// self is the subscription's receiver: the value passed with the Receiver
// option, the instance default, or the callback itself. args are the values
// handed to Publish, unchanged and in order.
type Callback func(self any, args ...any)

// Logger is the sink for routing and bookkeeping diagnostics.
// *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var _ Logger = (*slog.Logger)(nil)

// PanicHandler is called when a callback panics.
type PanicHandler func(err *PanicError)

// Stats contains instance statistics.
type Stats struct {
	// Published is the number of publishes that passed path validation.
	Published uint64

	// Invoked is the number of callback invocations, deferred ones included
	// once they have run.
	Invoked uint64

	// Deferred is the number of callbacks handed to the scheduler.
	Deferred uint64

	// Dropped is the number of callbacks the scheduler refused.
	Dropped uint64

	// Misses is the number of traversal branches stopped at an unknown segment.
	Misses uint64

	// Panics is the number of callbacks that panicked.
	Panics uint64

	// Subscriptions is the current number of registered subscriptions.
	Subscriptions int

	// Nodes is the number of namespace nodes. Nodes are never pruned.
	Nodes int
}
