package event

import (
	"github.com/dshills/nsbus/internal/event/dispatch"
	"github.com/dshills/nsbus/internal/event/namespace"
)

// Config is the resolved, immutable configuration of an Instance.
type Config struct {
	// Separator splits namespace paths into segments. Defaults to "/".
	Separator string

	// Recurrent makes publishes bubble: every level of the published path
	// is invoked, not only the leaf.
	Recurrent bool

	// Depth limits bubbling to the last Depth levels of the published path.
	// Zero or negative means no limit.
	Depth int

	// Async defers every callback to the scheduler instead of invoking it
	// before Publish returns.
	Async bool

	// Log enables diagnostics for routing and bookkeeping misses.
	Log bool

	// Receiver is the default value bound as a callback's self.
	// When nil the callback itself is used.
	Receiver any
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Separator: namespace.DefaultSeparator,
	}
}

// HasDepth reports whether bubbling is depth-limited.
func (c Config) HasDepth() bool {
	return c.Depth > 0
}

// Option configures an Instance.
type Option func(*instanceConfig)

// instanceConfig holds the configuration and collaborators of an Instance.
type instanceConfig struct {
	config       Config
	logger       Logger
	scheduler    dispatch.Scheduler
	panicHandler PanicHandler
}

// defaultInstanceConfig returns the built-in defaults.
func defaultInstanceConfig() instanceConfig {
	return instanceConfig{
		config:    DefaultConfig(),
		scheduler: dispatch.TimerScheduler{},
	}
}

// WithConfig replaces the whole configuration.
// Invalid fields fall back to their defaults.
func WithConfig(cfg Config) Option {
	return func(c *instanceConfig) {
		c.config = cfg
		c.config.Separator = namespace.NewSyntax(cfg.Separator).Separator
		if c.config.Depth < 0 {
			c.config.Depth = 0
		}
	}
}

// WithSeparator sets the path separator.
// Empty separators and the wildcard segment are ignored.
func WithSeparator(sep string) Option {
	return func(c *instanceConfig) {
		if sep != "" && sep != namespace.Wildcard {
			c.config.Separator = sep
		}
	}
}

// WithRecurrent sets the default bubbling mode.
func WithRecurrent(recurrent bool) Option {
	return func(c *instanceConfig) {
		c.config.Recurrent = recurrent
	}
}

// WithDepth sets the default bubbling depth. Zero or negative means no limit.
func WithDepth(depth int) Option {
	return func(c *instanceConfig) {
		if depth < 0 {
			depth = 0
		}
		c.config.Depth = depth
	}
}

// WithAsync sets the default execution mode.
func WithAsync(async bool) Option {
	return func(c *instanceConfig) {
		c.config.Async = async
	}
}

// WithLogging enables or disables diagnostics.
func WithLogging(enabled bool) Option {
	return func(c *instanceConfig) {
		c.config.Log = enabled
	}
}

// WithReceiver sets the default receiver for subscriptions.
func WithReceiver(receiver any) Option {
	return func(c *instanceConfig) {
		c.config.Receiver = receiver
	}
}

// WithLogger sets the diagnostics sink. Defaults to slog.Default().
func WithLogger(l Logger) Option {
	return func(c *instanceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScheduler sets the scheduler for deferred callbacks.
// Defaults to dispatch.TimerScheduler.
func WithScheduler(s dispatch.Scheduler) Option {
	return func(c *instanceConfig) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithPanicHandler sets the handler for panicking callbacks.
// By default panics are logged when logging is enabled.
func WithPanicHandler(h PanicHandler) Option {
	return func(c *instanceConfig) {
		c.panicHandler = h
	}
}

// PublishOption overrides the instance configuration for a single publish.
type PublishOption func(*publishParams)

// publishParams are the resolved parameters of one publish.
type publishParams struct {
	recurrent bool
	depth     int
	async     bool
}

// Recurrent overrides bubbling for one publish.
func Recurrent(recurrent bool) PublishOption {
	return func(p *publishParams) {
		p.recurrent = recurrent
	}
}

// Depth overrides the bubbling depth for one publish.
// Zero or negative means no limit.
func Depth(depth int) PublishOption {
	return func(p *publishParams) {
		p.depth = depth
	}
}

// Async overrides the execution mode for one publish.
func Async(async bool) PublishOption {
	return func(p *publishParams) {
		p.async = async
	}
}

// bubbles reports whether a level with remaining segments below it is
// invoked on the way down.
func (p publishParams) bubbles(remaining int) bool {
	if !p.recurrent {
		return false
	}
	return p.depth <= 0 || remaining < p.depth
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscribeParams)

type subscribeParams struct {
	receiver any
}

// Receiver binds receiver as the callback's self for one subscription.
// A nil receiver falls back to the instance default.
func Receiver(receiver any) SubscribeOption {
	return func(p *subscribeParams) {
		if receiver != nil {
			p.receiver = receiver
		}
	}
}
