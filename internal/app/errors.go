package app

import "errors"

// Application errors.
var (
	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrInvalidPath indicates a publish path that cannot be routed.
	ErrInvalidPath = errors.New("invalid namespace path")

	// ErrInvalidArgs indicates publish arguments that are not a JSON array.
	ErrInvalidArgs = errors.New("arguments must be a JSON array")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
