// Package watcher publishes file system changes onto namespace paths.
//
// A change to <root>/src/main.go is published to <prefix>/src/main.go with
// the arguments ("write", "/abs/root/src/main.go"). Publishes are recurrent,
// so a subscriber on <prefix>/src sees every change below src.
package watcher

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/dshills/nsbus/internal/event"
	"github.com/dshills/nsbus/internal/event/namespace"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrPathNotExist  = errors.New("path does not exist")
	ErrNotDirectory  = errors.New("path is not a directory")
)

// Publisher receives the change events. *event.Instance satisfies it, as
// does the Lua runtime, which queues publishes on its loop.
type Publisher interface {
	Publish(path string, args []any, opts ...event.PublishOption)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(path string, args []any, opts ...event.PublishOption)

// Publish implements Publisher.
func (f PublisherFunc) Publish(path string, args []any, opts ...event.PublishOption) {
	f(path, args, opts...)
}

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

var allOps = []Op{OpCreate, OpWrite, OpRemove, OpRename, OpChmod}

// String returns the name passed as the first publish argument.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Config configures a Watcher.
type Config struct {
	// Prefix is the namespace path changes are published under.
	Prefix string

	// Separator must match the separator of the receiving instance.
	Separator string

	// Ops selects the operations that are published.
	Ops Op

	// IgnoreHidden skips files and directories starting with ".".
	IgnoreHidden bool

	// Ignore lists filepath.Match patterns tested against base names.
	Ignore []string

	Logger *slog.Logger
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:       "fs",
		Separator:    namespace.DefaultSeparator,
		Ops:          OpCreate | OpWrite | OpRemove | OpRename,
		IgnoreHidden: true,
	}
}

// Option configures a Watcher.
type Option func(*Config)

// WithPrefix sets the namespace prefix.
func WithPrefix(prefix string) Option {
	return func(c *Config) {
		c.Prefix = prefix
	}
}

// WithSeparator sets the namespace separator.
func WithSeparator(sep string) Option {
	return func(c *Config) {
		c.Separator = namespace.NewSyntax(sep).Separator
	}
}

// WithOps selects the published operations.
func WithOps(ops Op) Option {
	return func(c *Config) {
		c.Ops = ops
	}
}

// WithIgnoreHidden sets whether dot files are skipped.
func WithIgnoreHidden(ignore bool) Option {
	return func(c *Config) {
		c.IgnoreHidden = ignore
	}
}

// WithIgnore adds base name patterns to skip.
func WithIgnore(patterns ...string) Option {
	return func(c *Config) {
		c.Ignore = append(c.Ignore, patterns...)
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// segmentReplacer keeps file names from producing wildcard or extra segments.
func segmentReplacer(sep string) *strings.Replacer {
	return strings.NewReplacer(sep, "_")
}
