package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dshills/nsbus/internal/config/loader"
	"github.com/dshills/nsbus/internal/event"
	"github.com/dshills/nsbus/internal/event/dispatch"
	"github.com/dshills/nsbus/internal/plugin/lua"
	"github.com/dshills/nsbus/internal/watcher"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 5),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initSettings,
		b.initLogger,
		b.initRuntime,
		b.initTaps,
		b.initScripts,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

func (b *bootstrapper) initSettings() error {
	var s loader.Settings
	if b.opts.Settings != nil {
		s = *b.opts.Settings
	} else {
		var err error
		s, err = loader.Load(b.opts.ConfigPath)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}

	if b.opts.LogLevel != "" {
		s.Log.Level = b.opts.LogLevel
	}
	if b.opts.LogFormat != "" {
		s.Log.Format = b.opts.LogFormat
	}
	if err := s.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	b.app.settings = s
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) initLogger() error {
	out := defaultWriter(b.opts.LogOutput, os.Stderr)
	b.app.logger = NewLogger(LoggerConfigFrom(b.app.settings.Log, out))
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

func (b *bootstrapper) initRuntime() error {
	b.app.runtime = lua.NewRuntime(
		lua.WithLogger(b.app.logger),
		lua.WithInstanceOptions(b.app.settings.Options()...),
	)
	b.initOrder = append(b.initOrder, "runtime")
	return nil
}

func (b *bootstrapper) initTaps() error {
	if len(b.opts.TapPaths) == 0 {
		return nil
	}

	// One worker keeps lines in publish order.
	pool := dispatch.NewPool(
		dispatch.WithWorkerCount(1),
		dispatch.WithQueueSize(b.app.settings.Tap.Queue),
	)
	if err := pool.Start(); err != nil {
		return &InitError{Component: "tap", Err: err}
	}
	b.app.tapPool = pool
	b.initOrder = append(b.initOrder, "taps")

	b.app.tap = NewTap(defaultWriter(b.opts.TapOutput, os.Stdout),
		WithTapScheduler(pool),
		WithTapLogger(b.app.logger),
	)
	inst := b.app.runtime.Instance()
	for _, path := range b.opts.TapPaths {
		h := b.app.tap.Attach(inst, path)
		if h.IsZero() {
			return &InitError{Component: "tap", Err: fmt.Errorf("invalid path %q", path)}
		}
		b.app.taps = append(b.app.taps, h)
	}
	return nil
}

func (b *bootstrapper) initScripts() error {
	for _, path := range b.opts.Scripts {
		if err := b.app.runtime.DoFile(path); err != nil {
			return &InitError{Component: "script " + path, Err: err}
		}
		b.app.logger.Debug("script loaded", "path", path)
	}
	return nil
}

func (b *bootstrapper) initWatcher() error {
	if b.opts.WatchDir == "" {
		return nil
	}

	rt := b.app.runtime
	logger := b.app.logger
	pub := watcher.PublisherFunc(func(path string, args []any, opts ...event.PublishOption) {
		if err := rt.Publish(path, args, opts...); err != nil {
			logger.Debug("watch event dropped", "path", path, "error", err)
		}
	})

	opts := []watcher.Option{
		watcher.WithSeparator(b.app.settings.Bus.Separator),
		watcher.WithLogger(logger),
	}
	if b.opts.WatchPrefix != "" {
		opts = append(opts, watcher.WithPrefix(b.opts.WatchPrefix))
	}

	w, err := watcher.New(pub, opts...)
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	b.app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")

	if err := w.WatchRecursive(b.opts.WatchDir); err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	return nil
}

// cleanup performs cleanup in reverse initialization order.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(ctx, b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(ctx context.Context, component string) {
	switch component {
	case "watcher":
		if w := b.app.watcher; w != nil {
			_ = w.Close()
			b.app.logger.Debug("watcher closed",
				"published", w.Published(),
				"errors", w.Errors(),
			)
		}
	case "taps":
		if b.app.runtime != nil {
			b.app.runtime.Instance().UnsubscribeMany(b.app.taps)
		}
		b.app.taps = nil
		if b.app.tapPool != nil {
			if err := b.app.tapPool.Stop(ctx); err != nil {
				b.app.logger.Warn("stopping tap writer", "error", err)
			}
		}
		if t := b.app.tap; t != nil {
			b.app.logger.Debug("taps closed", "written", t.Written(), "dropped", t.Dropped())
		}
	case "runtime":
		if b.app.runtime != nil {
			if err := b.app.runtime.Close(); err != nil && b.app.logger != nil {
				b.app.logger.Warn("closing lua runtime", "error", err)
			}
		}
	}
}
