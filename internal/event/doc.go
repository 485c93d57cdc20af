// Package event provides the namespace publish/subscribe engine.
//
// Callers subscribe callbacks to hierarchical namespace paths and publish
// events to a path, invoking every matching callback with the published
// arguments. Each Instance owns one namespace tree and one immutable
// configuration; nothing is shared between instances.
//
// # Architecture
//
//	            ┌────────────────────────────────────────┐
//	            │               Instance                 │
//	            │  - Config (separator, recurrent, ...)  │
//	            │  - Subscribe / SubscribeOnce           │
//	            │  - Publish / Unsubscribe               │
//	            └────────────────────────────────────────┘
//	                     │                     │
//	          ┌──────────┘                     └──────────┐
//	          ▼                                           ▼
//	┌───────────────────┐                       ┌───────────────────┐
//	│  namespace.Tree   │                       │     dispatch      │
//	│  - node per level │                       │  - Executor       │
//	│  - ordered subs   │                       │  - Scheduler      │
//	└───────────────────┘                       └───────────────────┘
//
// # Namespaces
//
// Paths are segments joined by the instance separator ("/" by default):
//
//	hello
//	hello/world
//	fs/src/main.go
//
// # Wildcards
//
// "*" is reserved on both sides:
//
//	subscribe "hello/*/world"   fires for hello/my/world, hello/huge/world
//	publish   "hello/*"         fires hello/world, hello/earth (not hello/world/inner)
//
// # Bubbling
//
// With Recurrent, a publish fires every level on the way down:
//
//	publish "a/b/c"                         fires a, a/b, a/b/c
//	publish "a/b/c" with Depth(2)           fires a/b, a/b/c
//
// # Execution
//
// Callbacks run synchronously, in subscription order, before Publish returns.
// With Async they are handed to a dispatch.Scheduler and run no earlier than
// dispatch.DeferDelay later. A callback that panics is isolated and reported
// to the PanicHandler.
//
// # Basic Usage
//
//	bus := event.New(event.WithSeparator("."), event.WithLogging(true))
//
//	h := bus.Subscribe("buffer.saved", func(self any, args ...any) {
//	    fmt.Println("saved", args[0])
//	})
//	defer bus.Unsubscribe(h)
//
//	bus.Publish("buffer.saved", []any{"main.go"})
//
//	// Fire ancestors too, deferred
//	bus.Publish("buffer.saved", []any{"main.go"}, event.Recurrent(true), event.Async(true))
//
// # Default Instance
//
// Default returns a process-wide Instance built at startup with the built-in
// defaults. Other instances are created with New or Instance.NewInstance.
package event
