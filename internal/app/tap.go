package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/nsbus/internal/event"
	"github.com/dshills/nsbus/internal/event/dispatch"
	"github.com/dshills/nsbus/internal/plugin/lua"
)

// Tap writes every invocation of its subscriptions as a JSON line:
//
//	{"tap":"fs","time":"...","args":["write","/abs/path"]}
//
// With a scheduler, lines are written by the scheduler in the order they
// were queued, which requires a scheduler that runs tasks one at a time.
type Tap struct {
	mu     sync.Mutex
	out    io.Writer
	sched  dispatch.Scheduler
	logger *slog.Logger
	now    func() time.Time

	written atomic.Uint64
	dropped atomic.Uint64
}

// TapOption configures a Tap.
type TapOption func(*Tap)

// WithTapScheduler writes lines through s instead of inline.
func WithTapScheduler(s dispatch.Scheduler) TapOption {
	return func(t *Tap) {
		t.sched = s
	}
}

// WithTapLogger sets the logger for dropped lines.
func WithTapLogger(l *slog.Logger) TapOption {
	return func(t *Tap) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTap creates a tap writing to out.
func NewTap(out io.Writer, opts ...TapOption) *Tap {
	t := &Tap{out: out, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach subscribes the tap to path on inst.
func (t *Tap) Attach(inst *event.Instance, path string) event.Handle {
	// The tapped path rides along as the receiver.
	return inst.Subscribe(path, t.write, event.Receiver(path))
}

// Written returns the number of lines written.
func (t *Tap) Written() uint64 {
	return t.written.Load()
}

// Dropped returns the number of lines that could not be written.
func (t *Tap) Dropped() uint64 {
	return t.dropped.Load()
}

// Flush waits until every queued line is written. It returns at once
// without a scheduler or when the scheduler no longer accepts tasks.
func (t *Tap) Flush(ctx context.Context) error {
	if t.sched == nil {
		return nil
	}
	done := make(chan struct{})
	if err := t.sched.Schedule(func() { close(done) }); err != nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tap) write(self any, args ...any) {
	path := fmt.Sprint(self)
	line, err := t.encode(path, args)
	if err != nil {
		t.drop(path, "encode", err)
		return
	}

	if t.sched == nil {
		t.emit(path, line)
		return
	}
	if err := t.sched.Schedule(func() { t.emit(path, line) }); err != nil {
		t.drop(path, "queue", err)
	}
}

func (t *Tap) emit(path, line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintln(t.out, line); err != nil {
		t.drop(path, "write", err)
		return
	}
	t.written.Add(1)
}

func (t *Tap) drop(path, stage string, err error) {
	t.dropped.Add(1)
	t.logger.Warn("tap line dropped", "tap", path, "stage", stage, "error", err)
}

func (t *Tap) encode(path string, args []any) (string, error) {
	line, err := sjson.Set("", "tap", path)
	if err != nil {
		return "", err
	}
	line, err = sjson.Set(line, "time", t.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", err
	}

	values := make([]any, len(args))
	for i, a := range args {
		values[i] = lua.ToGo(a)
	}
	if out, err := sjson.Set(line, "args", values); err == nil {
		return out, nil
	}

	// Fall back to strings for values JSON cannot encode.
	for i, v := range values {
		values[i] = fmt.Sprint(v)
	}
	return sjson.Set(line, "args", values)
}

// ParseArgs parses a JSON array into publish arguments. Whole numbers become
// int64, other numbers float64. An empty string yields no arguments.
func ParseArgs(s string) ([]any, error) {
	if s == "" {
		return nil, nil
	}
	if !gjson.Valid(s) {
		return nil, ErrInvalidArgs
	}
	parsed := gjson.Parse(s)
	if !parsed.IsArray() {
		return nil, ErrInvalidArgs
	}

	var args []any
	parsed.ForEach(func(_, v gjson.Result) bool {
		args = append(args, argValue(v))
		return true
	})
	return args, nil
}

func argValue(v gjson.Result) any {
	if v.Type == gjson.Number && v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1<<53 {
		return v.Int()
	}
	return v.Value()
}
