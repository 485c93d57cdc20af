package event

import "errors"

// ErrCallbackPanic matches every PanicError via errors.Is.
var ErrCallbackPanic = errors.New("callback panicked")

// PanicError wraps a panic raised by a callback.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose callback panicked.
	SubscriptionID string

	// Path is the namespace path the subscription was registered at.
	Path string

	// Published is the path that was published when the panic occurred.
	Published string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "callback panic for subscription " + e.SubscriptionID + " on " + e.Path
}

// Is allows errors.Is to match PanicError with ErrCallbackPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrCallbackPanic
}
