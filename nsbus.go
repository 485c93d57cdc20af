// Package nsbus is an in-process publish/subscribe dispatcher over
// hierarchical namespace paths.
//
// The package-level functions operate on the process-wide default instance.
// Use NewInstance for isolated trees with their own configuration.
//
//	h := nsbus.Subscribe("hello/*/world", func(self any, args ...any) {
//		fmt.Println(args...)
//	})
//	nsbus.Publish("hello/my/world", []any{"hi"})
//	nsbus.Unsubscribe(h)
package nsbus

import (
	"github.com/dshills/nsbus/internal/event"
)

type (
	// Instance is an isolated namespace tree plus its configuration.
	Instance = event.Instance

	// Handle identifies one subscription.
	Handle = event.Handle

	// Callback is invoked with the subscription's receiver and the
	// published arguments.
	Callback = event.Callback

	// Config is the resolved configuration of an Instance.
	Config = event.Config

	// Option configures an Instance.
	Option = event.Option

	// PublishOption overrides the instance configuration for one publish.
	PublishOption = event.PublishOption

	// SubscribeOption configures one subscription.
	SubscribeOption = event.SubscribeOption

	// Stats contains instance statistics.
	Stats = event.Stats

	// PanicError wraps a panic raised by a callback.
	PanicError = event.PanicError
)

// ErrCallbackPanic matches every PanicError via errors.Is.
var ErrCallbackPanic = event.ErrCallbackPanic

// Instance options.
var (
	WithConfig       = event.WithConfig
	WithSeparator    = event.WithSeparator
	WithRecurrent    = event.WithRecurrent
	WithDepth        = event.WithDepth
	WithAsync        = event.WithAsync
	WithLogging      = event.WithLogging
	WithReceiver     = event.WithReceiver
	WithLogger       = event.WithLogger
	WithScheduler    = event.WithScheduler
	WithPanicHandler = event.WithPanicHandler
)

// Per-call options.
var (
	Recurrent = event.Recurrent
	Depth     = event.Depth
	Async     = event.Async
	Receiver  = event.Receiver
)

// Default returns the process-wide instance.
func Default() *Instance {
	return event.Default()
}

// New creates an independent instance.
func New(opts ...Option) *Instance {
	return event.New(opts...)
}

// NewInstance creates an independent instance. The options are applied over
// the built-in defaults.
func NewInstance(opts ...Option) *Instance {
	return event.Default().NewInstance(opts...)
}

// Subscribe registers cb at path on the default instance.
func Subscribe(path string, cb Callback, opts ...SubscribeOption) Handle {
	return event.Default().Subscribe(path, cb, opts...)
}

// SubscribeMany subscribes every callback to every path on the default
// instance.
func SubscribeMany(paths []string, cbs []Callback, opts ...SubscribeOption) []Handle {
	return event.Default().SubscribeMany(paths, cbs, opts...)
}

// SubscribeOnce registers cb at path on the default instance and removes it
// after its first invocation.
func SubscribeOnce(path string, cb Callback, opts ...SubscribeOption) Handle {
	return event.Default().SubscribeOnce(path, cb, opts...)
}

// Publish triggers matching subscriptions on the default instance.
func Publish(path string, args []any, opts ...PublishOption) {
	event.Default().Publish(path, args, opts...)
}

// Unsubscribe removes a subscription from the default instance.
func Unsubscribe(h Handle) {
	event.Default().Unsubscribe(h)
}

// UnsubscribeMany removes every subscription in handles from the default
// instance.
func UnsubscribeMany(handles []Handle) {
	event.Default().UnsubscribeMany(handles)
}
