package event

import (
	"log/slog"
	"sync/atomic"

	"github.com/dshills/nsbus/internal/event/dispatch"
	"github.com/dshills/nsbus/internal/event/namespace"
)

// Instance is an isolated namespace tree plus its configuration.
//
// Instances share nothing: subscriptions registered on one are never reached
// by publishes on another. All methods are safe for concurrent use, and
// callbacks may freely publish, subscribe and unsubscribe on the instance
// that invoked them.
type Instance struct {
	config Config
	syntax namespace.Syntax
	tree   *namespace.Tree[*subscription]

	// Collaborators
	logger       Logger
	scheduler    dispatch.Scheduler
	executor     *dispatch.Executor
	panicHandler PanicHandler

	// Stats
	published atomic.Uint64
	invoked   atomic.Uint64
	deferred  atomic.Uint64
	dropped   atomic.Uint64
	misses    atomic.Uint64
	panics    atomic.Uint64
}

// New creates an Instance with the given options applied over the built-in
// defaults.
func New(opts ...Option) *Instance {
	ic := defaultInstanceConfig()
	for _, opt := range opts {
		opt(&ic)
	}

	inst := &Instance{
		config:       ic.config,
		syntax:       namespace.NewSyntax(ic.config.Separator),
		tree:         namespace.NewTree[*subscription](),
		logger:       ic.logger,
		scheduler:    ic.scheduler,
		executor:     dispatch.NewExecutor(),
		panicHandler: ic.panicHandler,
	}
	if inst.panicHandler == nil {
		inst.panicHandler = inst.logPanic
	}
	return inst
}

// NewInstance creates a fresh, independent Instance. The options are applied
// over the built-in defaults, not over this instance's configuration.
func (i *Instance) NewInstance(opts ...Option) *Instance {
	return New(opts...)
}

// Config returns the instance configuration.
func (i *Instance) Config() Config {
	return i.config
}

// Separator returns the path separator.
func (i *Instance) Separator() string {
	return i.syntax.Separator
}

// Paths returns every namespace path that holds at least one subscription.
func (i *Instance) Paths() []string {
	return i.tree.Paths(i.syntax)
}

// Count returns the number of subscriptions registered exactly at path.
func (i *Instance) Count(path string) int {
	segments, err := i.syntax.Split(path)
	if err != nil {
		return 0
	}
	return i.tree.Count(segments)
}

// NodeCount returns the number of namespace nodes ever created.
func (i *Instance) NodeCount() int {
	return i.tree.NodeCount()
}

// Stats returns current instance statistics.
func (i *Instance) Stats() Stats {
	return Stats{
		Published:     i.published.Load(),
		Invoked:       i.invoked.Load(),
		Deferred:      i.deferred.Load(),
		Dropped:       i.dropped.Load(),
		Misses:        i.misses.Load(),
		Panics:        i.panics.Load(),
		Subscriptions: i.tree.Size(),
		Nodes:         i.tree.NodeCount(),
	}
}

// log returns the configured sink, or the process default at call time.
func (i *Instance) log() Logger {
	if i.logger != nil {
		return i.logger
	}
	return slog.Default().With("component", "event")
}

func (i *Instance) logInfo(msg string, args ...any) {
	if i.config.Log {
		i.log().Info(msg, args...)
	}
}

func (i *Instance) logWarn(msg string, args ...any) {
	if i.config.Log {
		i.log().Warn(msg, args...)
	}
}

func (i *Instance) logError(msg string, args ...any) {
	if i.config.Log {
		i.log().Error(msg, args...)
	}
}

func (i *Instance) logPanic(err *PanicError) {
	i.logError("callback panicked",
		"path", err.Path,
		"published", err.Published,
		"subscription", err.SubscriptionID,
		"panic", err.Value,
	)
}
