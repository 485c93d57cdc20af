package event

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/nsbus/internal/event/dispatch"
)

// call is one recorded callback invocation.
type call struct {
	name string
	self any
	args []any
}

// recorder collects invocations from the callbacks it hands out.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) cb(name string) Callback {
	return func(self any, args ...any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, call{name: name, self: self, args: args})
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.calls))
	for i, c := range r.calls {
		names[i] = c.name
	}
	return names
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func (r *recorder) last() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

// logRecord is one message captured by testLogger.
type logRecord struct {
	level string
	msg   string
	args  []any
}

// testLogger records messages instead of writing them.
type testLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *testLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *testLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *testLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *testLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg, args: args})
}

func (l *testLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	levels := make([]string, len(l.records))
	for i, r := range l.records {
		levels[i] = r.level
	}
	return levels
}

func (l *testLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprint(l.records)
}

// newLoopInstance returns an instance whose deferred callbacks run on a Loop.
func newLoopInstance(opts ...Option) (*Instance, *dispatch.Loop) {
	loop := dispatch.NewLoop()
	return New(append([]Option{WithScheduler(loop)}, opts...)...), loop
}

func drain(t *testing.T, loop *dispatch.Loop) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Drain(ctx))
}

// timeout bounds waits on callbacks run by other goroutines.
func timeout() <-chan time.Time {
	return time.After(2 * time.Second)
}

// lockedBuffer is a bytes.Buffer safe for concurrent writers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
