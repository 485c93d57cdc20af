package lua

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/nsbus/internal/event"
)

func newTestRuntime(t *testing.T, opts ...RuntimeOption) *Runtime {
	t.Helper()
	rt := NewRuntime(opts...)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func drain(t *testing.T, rt *Runtime) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rt.Drain(ctx))
}

func global(rt *Runtime, name string) any {
	return ToGo(rt.State().GetGlobal(name))
}

func TestRuntime_SubscribePublish(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		got = {}
		pubsub.subscribe("hello/world", function(self, a, b)
			table.insert(got, a)
			table.insert(got, b)
		end)
		pubsub.publish("hello/world", {"x", 2})
	`))

	assert.Equal(t, []any{"x", int64(2)}, global(rt, "got"))
}

func TestRuntime_ReceiverDefaultsToFunction(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		local fn
		fn = function(self) same = (self == fn) end
		pubsub.subscribe("a", fn)
		pubsub.publish("a")

		local obj = {name = "obj"}
		pubsub.subscribe("b", function(self) name = self.name end, {self = obj})
		pubsub.publish("b")
	`))

	assert.Equal(t, true, global(rt, "same"))
	assert.Equal(t, "obj", global(rt, "name"))
}

func TestRuntime_Handle(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		count = 0
		local h = pubsub.subscribe("a/b", function() count = count + 1 end)
		path = h:path()
		id = h:id()
		before = h:active()
		text = tostring(h)

		pubsub.publish("a/b")
		pubsub.unsubscribe(h)
		pubsub.unsubscribe(h)
		pubsub.publish("a/b")
		after = h:active()
	`))

	assert.Equal(t, "a/b", global(rt, "path"))
	assert.Len(t, global(rt, "id"), 36)
	assert.Equal(t, true, global(rt, "before"))
	assert.Equal(t, false, global(rt, "after"))
	assert.Equal(t, int64(1), global(rt, "count"))
	assert.Equal(t, "a/b#"+global(rt, "id").(string), global(rt, "text"))
}

func TestRuntime_SubscribeMany(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		calls = {}
		local f = function() table.insert(calls, "f") end
		local g = function() table.insert(calls, "g") end
		handles = pubsub.subscribe({"x", "y"}, {f, g})
		n = #handles
		pubsub.publish("x")
		pubsub.unsubscribe(handles)
		pubsub.publish("y")
	`))

	assert.Equal(t, int64(4), global(rt, "n"))
	assert.Equal(t, []any{"f", "g"}, global(rt, "calls"))
	assert.Empty(t, rt.Instance().Paths())
}

func TestRuntime_SubscribeOnce(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		count = 0
		pubsub.subscribe_once("a", function() count = count + 1 end)
		pubsub.publish("a")
		pubsub.publish("a")
	`))

	assert.Equal(t, int64(1), global(rt, "count"))
}

func TestRuntime_PublishOptions(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		levels = {}
		for _, p in ipairs({"a", "a/b", "a/b/c"}) do
			pubsub.subscribe(p, function() table.insert(levels, p) end)
		end
		pubsub.publish("a/b/c", nil, {recurrent = true, depth = 2})
	`))

	assert.Equal(t, []any{"a/b", "a/b/c"}, global(rt, "levels"))
}

func TestRuntime_AsyncRunsOnLoop(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		fired = false
		pubsub.subscribe("a", function() fired = true end)
		pubsub.publish("a", nil, {async = true})
		immediately = fired
	`))
	assert.Equal(t, false, global(rt, "immediately"))
	assert.Equal(t, false, global(rt, "fired"))

	drain(t, rt)
	assert.Equal(t, true, global(rt, "fired"))
}

func TestRuntime_PublishFromGo(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		seen = nil
		pubsub.subscribe("fs/*", function(self, op, path) seen = op .. ":" .. path end)
	`))

	done := make(chan error, 1)
	go func() { done <- rt.Publish("fs/main.go", []any{"write", "/tmp/main.go"}) }()
	require.NoError(t, <-done)

	drain(t, rt)
	assert.Equal(t, "write:/tmp/main.go", global(rt, "seen"))
}

func TestRuntime_NewInstance(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.DoString(`
		levels = {}
		local inst = pubsub.new_instance({separator = ".", recurrent = true})
		inst:subscribe("a", function() table.insert(levels, "a") end)
		inst:subscribe("a.b", function() table.insert(levels, "a.b") end)
		inst:publish("a.b")
		pubsub.publish("a.b")
		paths = inst:paths()
	`))

	assert.Equal(t, []any{"a", "a.b"}, global(rt, "levels"))
	assert.Equal(t, []any{"a", "a.b"}, global(rt, "paths"))
	assert.Empty(t, rt.Instance().Paths())
}

func TestRuntime_NonStringPath(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := newTestRuntime(t, WithLogger(logger), WithInstanceOptions(event.WithLogging(true)))

	require.NoError(t, rt.DoString(`
		count = 0
		local h = pubsub.subscribe(42, function() count = count + 1 end)
		path = h:path()
		pubsub.publish(42)
		pubsub.publish("42")
	`))

	assert.Equal(t, int64(0), global(rt, "count"))
	assert.Contains(t, global(rt, "path"), "unroutable-")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "namespace path is not a string")
}

func TestRuntime_NonStringPathQuietWithoutLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := newTestRuntime(t, WithLogger(logger))

	require.NoError(t, rt.DoString(`
		local h = pubsub.subscribe(true, function() end)
		path = h:path()
	`))

	assert.Contains(t, global(rt, "path"), "unroutable-")
	assert.NotContains(t, buf.String(), "namespace path is not a string")
}

func TestRuntime_CallbackErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := newTestRuntime(t, WithLogger(logger))

	require.NoError(t, rt.DoString(`
		after = false
		pubsub.subscribe("a", function() error("boom") end)
		pubsub.subscribe("a", function() after = true end)
		pubsub.publish("a")
	`))

	assert.Equal(t, true, global(rt, "after"))
	assert.Contains(t, buf.String(), "lua callback failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestRuntime_InstanceOptions(t *testing.T) {
	rt := newTestRuntime(t, WithInstanceOptions(event.WithSeparator("."), event.WithRecurrent(true)))

	assert.Equal(t, ".", rt.Instance().Separator())
	assert.True(t, rt.Instance().Config().Recurrent)
}

func TestRuntime_DoFile(t *testing.T) {
	rt := newTestRuntime(t)
	path := filepath.Join(t.TempDir(), "init.lua")
	require.NoError(t, os.WriteFile(path, []byte(`loaded = true`), 0o644))

	require.NoError(t, rt.DoFile(path))
	assert.Equal(t, true, global(rt, "loaded"))

	assert.Error(t, rt.DoFile(filepath.Join(t.TempDir(), "missing.lua")))
}

func TestRuntime_Close(t *testing.T) {
	rt := NewRuntime()
	require.NoError(t, rt.Close())

	assert.ErrorIs(t, rt.DoString(`x = 1`), ErrStateClosed)
	assert.Error(t, rt.Publish("a", nil))
	assert.True(t, rt.State().IsClosed())
}

func TestRuntime_CloseSkipsQueuedTasks(t *testing.T) {
	rt := NewRuntime()

	require.NoError(t, rt.DoString(`
		pubsub.subscribe("a", function() end)
		pubsub.publish("a", nil, {async = true})
	`))
	var goCalls int
	rt.Instance().Subscribe("a", func(any, ...any) { goCalls++ })
	require.NoError(t, rt.Publish("a", nil))

	require.NoError(t, rt.Close())

	assert.NotPanics(t, func() { drain(t, rt) })
	assert.Equal(t, 0, goCalls)
}

func TestRuntime_CloseWhileRunning(t *testing.T) {
	rt := NewRuntime()
	require.NoError(t, rt.DoString(`
		count = 0
		pubsub.subscribe("tick", function() count = count + 1 end)
	`))

	done := make(chan error, 1)
	go func() { done <- rt.Run(context.Background()) }()

	for n := 0; n < 100; n++ {
		require.NoError(t, rt.Publish("tick", nil))
	}
	require.NoError(t, rt.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestState_SafeLibraries(t *testing.T) {
	s := NewState()
	defer s.Close()

	require.NoError(t, s.DoString(`
		has_io = io ~= nil
		has_os = os ~= nil
		has_dofile = dofile ~= nil
		upper = string.upper("x")
	`))

	assert.Equal(t, glua.LFalse, s.GetGlobal("has_io"))
	assert.Equal(t, glua.LFalse, s.GetGlobal("has_os"))
	assert.Equal(t, glua.LFalse, s.GetGlobal("has_dofile"))
	assert.Equal(t, glua.LString("X"), s.GetGlobal("upper"))
}

func TestState_ExecutionTimeout(t *testing.T) {
	s := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer s.Close()

	err := s.DoString(`while true do end`)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestState_SyntaxError(t *testing.T) {
	s := NewState()
	defer s.Close()

	assert.Error(t, s.DoString(`this is not lua`))
}
