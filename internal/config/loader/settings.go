package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/nsbus/internal/event"
	"github.com/dshills/nsbus/internal/event/namespace"
)

// Log levels and formats accepted in the [log] section.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json", "auto"}
)

// Settings is the complete nsbus configuration.
type Settings struct {
	Bus BusSettings `toml:"bus" yaml:"bus" json:"bus"`
	Log LogSettings `toml:"log" yaml:"log" json:"log"`
	Tap TapSettings `toml:"tap" yaml:"tap" json:"tap"`
}

// BusSettings configures the event instance.
type BusSettings struct {
	Separator string `toml:"separator" yaml:"separator" json:"separator"`
	Recurrent bool   `toml:"recurrent" yaml:"recurrent" json:"recurrent"`
	Depth     int    `toml:"depth" yaml:"depth" json:"depth"`
	Async     bool   `toml:"async" yaml:"async" json:"async"`
	Log       bool   `toml:"log" yaml:"log" json:"log"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
}

// TapSettings configures taps, which print the events reaching a path.
type TapSettings struct {
	// Queue bounds the lines waiting to be written. Lines beyond it are
	// dropped.
	Queue int `toml:"queue" yaml:"queue" json:"queue"`
}

// DefaultTapQueue is the default tap queue size.
const DefaultTapQueue = 1024

// Defaults returns the built-in settings.
func Defaults() Settings {
	cfg := event.DefaultConfig()
	return Settings{
		Bus: BusSettings{
			Separator: cfg.Separator,
			Recurrent: cfg.Recurrent,
			Depth:     cfg.Depth,
			Async:     cfg.Async,
			Log:       cfg.Log,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Tap: TapSettings{
			Queue: DefaultTapQueue,
		},
	}
}

// Load builds Settings from the defaults, the file at path (if path is not
// empty and the file exists) and the NSBUS_* environment, in that order.
func Load(path string) (Settings, error) {
	return LoadWithFS(DefaultFS(), NewEnvLoader(), path)
}

// LoadWithFS is Load with an explicit file system and environment loader.
func LoadWithFS(fs FileSystem, env Loader, path string) (Settings, error) {
	merged := make(map[string]any)

	if path != "" {
		fl, err := ForPath(fs, path)
		if err != nil {
			return Settings{}, err
		}
		file, err := fl.LoadWithIncludes(path, MaxIncludeDepth)
		if err != nil {
			return Settings{}, err
		}
		merged = DeepMerge(merged, file)
	}

	if env != nil {
		vars, err := env.Load()
		if err != nil {
			return Settings{}, fmt.Errorf("loading environment: %w", err)
		}
		merged = DeepMerge(merged, vars)
	}

	s := Defaults()
	if err := s.Apply(merged); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Apply overlays the known keys of a configuration map onto s.
// Unknown keys are ignored.
func (s *Settings) Apply(m map[string]any) error {
	fields := []struct {
		key   string
		apply func(any) error
	}{
		{"bus.separator", stringField(&s.Bus.Separator)},
		{"bus.recurrent", boolField(&s.Bus.Recurrent)},
		{"bus.depth", intField(&s.Bus.Depth)},
		{"bus.async", boolField(&s.Bus.Async)},
		{"bus.log", boolField(&s.Bus.Log)},
		{"log.level", stringField(&s.Log.Level)},
		{"log.format", stringField(&s.Log.Format)},
		{"tap.queue", intField(&s.Tap.Queue)},
	}

	for _, f := range fields {
		v, ok := getByPath(m, f.key)
		if !ok {
			continue
		}
		if err := f.apply(v); err != nil {
			return &FieldError{Key: f.key, Value: v, Message: err.Error()}
		}
	}
	return nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Bus.Separator == "" || s.Bus.Separator == namespace.Wildcard {
		return &FieldError{Key: "bus.separator", Value: s.Bus.Separator, Message: "must be non-empty and not the wildcard"}
	}
	if s.Bus.Depth < 0 {
		return &FieldError{Key: "bus.depth", Value: s.Bus.Depth, Message: "must not be negative"}
	}
	if s.Tap.Queue <= 0 {
		return &FieldError{Key: "tap.queue", Value: s.Tap.Queue, Message: "must be positive"}
	}
	if !slices.Contains(LogLevels, strings.ToLower(s.Log.Level)) {
		return &FieldError{Key: "log.level", Value: s.Log.Level, Message: "must be one of " + strings.Join(LogLevels, ", ")}
	}
	if !slices.Contains(LogFormats, strings.ToLower(s.Log.Format)) {
		return &FieldError{Key: "log.format", Value: s.Log.Format, Message: "must be one of " + strings.Join(LogFormats, ", ")}
	}
	return nil
}

// Config converts the bus settings to an event configuration.
func (s Settings) Config() event.Config {
	return event.Config{
		Separator: s.Bus.Separator,
		Recurrent: s.Bus.Recurrent,
		Depth:     s.Bus.Depth,
		Async:     s.Bus.Async,
		Log:       s.Bus.Log,
	}
}

// Options returns the instance options for the bus settings.
func (s Settings) Options() []event.Option {
	return []event.Option{event.WithConfig(s.Config())}
}

// Map returns s as a configuration map keyed like the file formats.
func (s Settings) Map() map[string]any {
	return map[string]any{
		"bus": map[string]any{
			"separator": s.Bus.Separator,
			"recurrent": s.Bus.Recurrent,
			"depth":     s.Bus.Depth,
			"async":     s.Bus.Async,
			"log":       s.Bus.Log,
		},
		"log": map[string]any{
			"level":  s.Log.Level,
			"format": s.Log.Format,
		},
		"tap": map[string]any{
			"queue": s.Tap.Queue,
		},
	}
}

func stringField(dst *string) func(any) error {
	return func(v any) error {
		switch v := v.(type) {
		case string:
			*dst = v
		case int, int64:
			*dst = fmt.Sprint(v)
		default:
			return fmt.Errorf("expected string")
		}
		return nil
	}
}

func boolField(dst *bool) func(any) error {
	return func(v any) error {
		switch v := v.(type) {
		case bool:
			*dst = v
		case int64:
			return intBool(dst, v)
		case int:
			return intBool(dst, int64(v))
		default:
			return fmt.Errorf("expected boolean")
		}
		return nil
	}
}

func intBool(dst *bool, v int64) error {
	switch v {
	case 0:
		*dst = false
	case 1:
		*dst = true
	default:
		return fmt.Errorf("expected boolean")
	}
	return nil
}

func intField(dst *int) func(any) error {
	return func(v any) error {
		switch v := v.(type) {
		case int:
			*dst = v
		case int64:
			*dst = int(v)
		case uint64:
			*dst = int(v)
		default:
			return fmt.Errorf("expected integer")
		}
		return nil
	}
}
