package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/nsbus/internal/app"
	"github.com/dshills/nsbus/internal/config/loader"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func outputLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nsbus dev")
	assert.Contains(t, out, "commit: unknown")
}

func TestConfigCommand_JSON(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)

	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, "/", gjson.Get(out, "bus.separator").String())
	assert.False(t, gjson.Get(out, "bus.recurrent").Bool())
	assert.Equal(t, "info", gjson.Get(out, "log.level").String())
}

func TestConfigCommand_FileAndFlags(t *testing.T) {
	path := writeFile(t, "nsbus.yaml", "bus:\n  separator: \".\"\n  depth: 2\n")

	out, err := execute(t, "config", "--config", path, "--log-level", "debug")
	require.NoError(t, err)

	assert.Equal(t, ".", gjson.Get(out, "bus.separator").String())
	assert.Equal(t, int64(2), gjson.Get(out, "bus.depth").Int())
	assert.Equal(t, "debug", gjson.Get(out, "log.level").String())
}

func TestConfigCommand_TOMLAndYAML(t *testing.T) {
	out, err := execute(t, "config", "--format", "toml")
	require.NoError(t, err)
	var fromTOML loader.Settings
	require.NoError(t, toml.Unmarshal([]byte(out), &fromTOML))
	assert.Equal(t, loader.Defaults(), fromTOML)

	out, err = execute(t, "config", "--format", "yaml")
	require.NoError(t, err)
	var fromYAML loader.Settings
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, loader.Defaults(), fromYAML)
}

func TestConfigCommand_Errors(t *testing.T) {
	_, err := execute(t, "config", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = execute(t, "config", "--log-level", "loud")
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)
}

func TestPublishCommand_DefaultTap(t *testing.T) {
	out, err := execute(t, "publish", "a/b", "--args", `["x", 1]`)
	require.NoError(t, err)

	lines := outputLines(out)
	require.Len(t, lines, 1)
	assert.Equal(t, "a/b", gjson.Get(lines[0], "tap").String())
	assert.Equal(t, "x", gjson.Get(lines[0], "args.0").String())
	assert.Equal(t, int64(1), gjson.Get(lines[0], "args.1").Int())
}

func TestPublishCommand_Script(t *testing.T) {
	script := writeFile(t, "greet.lua", `
		pubsub.subscribe("greet", function(self, name)
			pubsub.publish("out/greeting", {"hello " .. name})
		end)
	`)

	out, err := execute(t, "publish", "greet", "--script", script, "--tap", "out/greeting", "--args", `["bob"]`)
	require.NoError(t, err)

	lines := outputLines(out)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello bob", gjson.Get(lines[0], "args.0").String())
}

func TestPublishCommand_Recurrent(t *testing.T) {
	out, err := execute(t, "publish", "a/b/c", "--tap", "a", "--tap", "a/b", "--recurrent", "--depth", "2")
	require.NoError(t, err)

	lines := outputLines(out)
	require.Len(t, lines, 1)
	assert.Equal(t, "a/b", gjson.Get(lines[0], "tap").String())
}

func TestPublishCommand_InvalidArgs(t *testing.T) {
	_, err := execute(t, "publish", "a", "--args", `{"not": "an array"}`)
	assert.ErrorIs(t, err, app.ErrInvalidArgs)

	_, err = execute(t, "publish")
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	script := writeFile(t, "init.lua", `
		pubsub.subscribe("ready", function(self, n)
			pubsub.publish("done", {n + 1}, {async = true})
		end)
		pubsub.publish("ready", {41}, {async = true})
	`)

	out, err := execute(t, "run", script, "--tap", "done")
	require.NoError(t, err)

	lines := outputLines(out)
	require.Len(t, lines, 1)
	assert.Equal(t, "done", gjson.Get(lines[0], "tap").String())
	assert.Equal(t, int64(42), gjson.Get(lines[0], "args.0").Int())
}

func TestRunCommand_ScriptError(t *testing.T) {
	script := writeFile(t, "bad.lua", `this is not lua`)

	_, err := execute(t, "run", script)

	var initErr *app.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "script "+script, initErr.Component)
}
