// Package app wires the nsbus components into a runnable process: settings,
// logging, a Lua runtime with its event instance, optional taps and an
// optional directory watcher.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/nsbus/internal/config/loader"
	"github.com/dshills/nsbus/internal/event"
	"github.com/dshills/nsbus/internal/event/dispatch"
	"github.com/dshills/nsbus/internal/event/namespace"
	"github.com/dshills/nsbus/internal/plugin/lua"
	"github.com/dshills/nsbus/internal/watcher"
)

// Options configures an Application.
type Options struct {
	// ConfigPath is a TOML or YAML settings file. Empty means defaults
	// and environment only.
	ConfigPath string

	// Settings, when set, is used instead of loading ConfigPath.
	Settings *loader.Settings

	// LogLevel and LogFormat override the loaded log settings.
	LogLevel  string
	LogFormat string

	// LogOutput receives log output. Defaults to os.Stderr.
	LogOutput io.Writer

	// Scripts are Lua files run in order at startup.
	Scripts []string

	// WatchDir, when set, is watched recursively and its changes are
	// published under WatchPrefix.
	WatchDir    string
	WatchPrefix string

	// TapPaths are subscribed by a tap writing JSON lines to TapOutput
	// (os.Stdout when nil).
	TapPaths  []string
	TapOutput io.Writer
}

// Application is a running nsbus process.
type Application struct {
	settings loader.Settings
	logger   *slog.Logger
	runtime  *lua.Runtime
	watcher  *watcher.Watcher
	tap      *Tap
	tapPool  *dispatch.Pool
	taps     []event.Handle

	initOrder []string

	running   atomic.Bool
	closeOnce sync.Once
}

// New creates an application and starts its components. If a component
// fails, those already started are shut down again.
func New(opts Options) (*Application, error) {
	app := &Application{}
	b := newBootstrapper(app, opts)
	if err := b.bootstrap(); err != nil {
		return nil, err
	}
	app.initOrder = b.initOrder
	return app, nil
}

// Settings returns the effective settings.
func (a *Application) Settings() loader.Settings {
	return a.settings
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Runtime returns the Lua runtime.
func (a *Application) Runtime() *lua.Runtime {
	return a.runtime
}

// Instance returns the event instance shared with Lua scripts.
func (a *Application) Instance() *event.Instance {
	return a.runtime.Instance()
}

// Watcher returns the directory watcher, or nil if none was configured.
func (a *Application) Watcher() *watcher.Watcher {
	return a.watcher
}

// Publish queues a publish on the runtime loop. It is safe for concurrent
// use.
func (a *Application) Publish(path string, args []any, opts ...event.PublishOption) error {
	if !namespace.NewSyntax(a.settings.Bus.Separator).Valid(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return a.runtime.Publish(path, args, opts...)
}

// Drain runs queued work until none is left and every tap line is written.
func (a *Application) Drain(ctx context.Context) error {
	if err := a.runtime.Drain(ctx); err != nil {
		return err
	}
	if a.tap != nil {
		return a.tap.Flush(ctx)
	}
	return nil
}

// Tap returns the tap, or nil if no tap paths were given.
func (a *Application) Tap() *Tap {
	return a.tap
}

// Run processes queued work until ctx is done or the application is
// closed. Work queued before shutdown still runs.
func (a *Application) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		a.runtime.Loop().Close()
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return a.runtime.Run(context.WithoutCancel(gctx))
	})

	a.logger.Info("running", "watch", a.watchRoot(), "taps", len(a.taps))
	return g.Wait()
}

// Close shuts down every component in reverse start order. Call it after Run
// has returned.
func (a *Application) Close() error {
	a.closeOnce.Do(func() {
		b := &bootstrapper{app: a, initOrder: a.initOrder}
		b.cleanup()
	})
	return nil
}

func (a *Application) watchRoot() string {
	if a.watcher == nil {
		return ""
	}
	return a.watcher.Root()
}

func defaultWriter(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
