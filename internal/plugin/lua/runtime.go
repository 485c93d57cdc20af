package lua

import (
	"context"
	"log/slog"

	"github.com/dshills/nsbus/internal/event"
	"github.com/dshills/nsbus/internal/event/dispatch"
)

// Runtime runs Lua scripts against an event instance.
//
// A Runtime is owned by one goroutine: the one calling DoFile, DoString,
// RunPending, Drain or Run. Publish and Close are safe to call from other
// goroutines. Loop tasks run under the state lock, so Close waits for the
// running task and later tasks are skipped.
type Runtime struct {
	state  *State
	bridge *Bridge
	loop   *dispatch.Loop
	inst   *event.Instance
	logger *slog.Logger
}

type runtimeConfig struct {
	logger    *slog.Logger
	loop      *dispatch.Loop
	instance  []event.Option
	stateOpts []StateOption
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*runtimeConfig)

// WithLogger sets the logger for script errors and instance diagnostics.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(c *runtimeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLoop uses loop instead of a private one.
func WithLoop(loop *dispatch.Loop) RuntimeOption {
	return func(c *runtimeConfig) {
		if loop != nil {
			c.loop = loop
		}
	}
}

// WithInstanceOptions configures the Runtime's instance.
func WithInstanceOptions(opts ...event.Option) RuntimeOption {
	return func(c *runtimeConfig) {
		c.instance = append(c.instance, opts...)
	}
}

// WithStateOptions configures the Lua state.
func WithStateOptions(opts ...StateOption) RuntimeOption {
	return func(c *runtimeConfig) {
		c.stateOpts = append(c.stateOpts, opts...)
	}
}

// NewRuntime creates a Lua state with the pubsub module installed.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	cfg := runtimeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.loop == nil {
		cfg.loop = dispatch.NewLoop()
	}

	rt := &Runtime{
		state:  NewState(cfg.stateOpts...),
		loop:   cfg.loop,
		logger: cfg.logger.With("component", "lua"),
	}
	rt.bridge = NewBridge(rt.state.L)

	// The runtime's scheduler and logger come last so they always apply.
	instOpts := append([]event.Option{}, cfg.instance...)
	instOpts = append(instOpts, rt.instanceOptions()...)
	rt.inst = event.New(instOpts...)

	L := rt.state.L
	registerTypes(L, rt)
	m := &module{rt: rt, inst: rt.inst}
	L.SetGlobal(ModuleName, m.table(L))

	return rt
}

// instanceOptions are applied to every instance reachable from Lua.
func (rt *Runtime) instanceOptions() []event.Option {
	return []event.Option{
		event.WithScheduler(dispatch.SchedulerFunc(rt.schedule)),
		event.WithLogger(rt.logger),
	}
}

// schedule queues task on the loop, guarded by the state lock.
func (rt *Runtime) schedule(task func()) error {
	if task == nil {
		return dispatch.ErrNilTask
	}
	return rt.loop.Schedule(func() {
		if !rt.state.exclusive(task) {
			rt.logger.Debug("lua state closed, task skipped")
		}
	})
}

// Instance returns the instance bound to the global pubsub table.
func (rt *Runtime) Instance() *event.Instance {
	return rt.inst
}

// Loop returns the loop deferred callbacks run on.
func (rt *Runtime) Loop() *dispatch.Loop {
	return rt.loop
}

// State returns the Lua state.
func (rt *Runtime) State() *State {
	return rt.state
}

// DoFile executes a script.
func (rt *Runtime) DoFile(path string) error {
	return rt.state.DoFile(path)
}

// DoString executes a chunk.
func (rt *Runtime) DoString(code string) error {
	return rt.state.DoString(code)
}

// Publish queues a publish on the loop. It is safe for concurrent use.
func (rt *Runtime) Publish(path string, args []any, opts ...event.PublishOption) error {
	return rt.schedule(func() {
		rt.inst.Publish(path, args, opts...)
	})
}

// RunPending runs every loop task that is due and returns how many ran.
func (rt *Runtime) RunPending() int {
	return rt.loop.RunPending()
}

// Drain runs loop tasks until none are left.
func (rt *Runtime) Drain(ctx context.Context) error {
	return rt.loop.Drain(ctx)
}

// Run processes loop tasks until ctx is done or the Runtime is closed.
func (rt *Runtime) Run(ctx context.Context) error {
	return rt.loop.Run(ctx)
}

// Close stops the loop and releases the Lua state.
func (rt *Runtime) Close() error {
	rt.loop.Close()
	return rt.state.Close()
}
