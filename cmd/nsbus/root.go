package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/nsbus/internal/app"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "nsbus",
		Short: "Namespaced publish/subscribe for Lua scripts",
		Long: `nsbus dispatches events along a tree of delimiter-separated namespace
paths. Scripts subscribe Lua functions to paths (with * wildcards) and publish
to them; publishes can bubble to ancestor paths and run deferred.

Configuration is read from the file given by --config (TOML or YAML), then
overridden by NSBUS_* environment variables and finally by flags.

Examples:
  nsbus run init.lua                      Run a script and its deferred work
  nsbus publish app/start --args '[1]'    Publish and print what reaches the path
  nsbus watch ./src --tap fs              Print file changes as events
  nsbus config --format toml              Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "config file (.toml, .yaml or .yml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (text, json, auto)")

	root.AddCommand(
		newRunCmd(g),
		newPublishCmd(g),
		newWatchCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return root
}

// options returns application options for cmd with the global flags applied.
func (g *globalFlags) options(cmd *cobra.Command) app.Options {
	return app.Options{
		ConfigPath: g.config,
		LogLevel:   g.logLevel,
		LogFormat:  g.logFormat,
		LogOutput:  cmd.ErrOrStderr(),
		TapOutput:  cmd.OutOrStdout(),
	}
}

// serve runs a until interrupted, then closes it.
func serve(cmd *cobra.Command, a *app.Application) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := a.Run(ctx)
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	return err
}

// finish runs a until no work is left, then closes it.
func finish(cmd *cobra.Command, a *app.Application) error {
	err := a.Drain(cmd.Context())
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	return err
}
