package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dshills/nsbus/internal/config/loader"
)

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is text, json, or auto (text on a terminal, json otherwise).
	Format string
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
}

// LoggerConfigFrom builds a LoggerConfig from settings.
func LoggerConfigFrom(s loader.LogSettings, out io.Writer) LoggerConfig {
	return LoggerConfig{Level: s.Level, Format: s.Format, Output: out}
}

// ParseLevel parses a level name. Unknown names yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger for cfg.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if useJSON(cfg) {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

func useJSON(cfg LoggerConfig) bool {
	switch strings.ToLower(cfg.Format) {
	case "json":
		return true
	case "auto":
		f, ok := cfg.Output.(*os.File)
		return !ok || !term.IsTerminal(int(f.Fd()))
	default:
		return false
	}
}
