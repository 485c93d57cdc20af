package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/nsbus/internal/app"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		taps   []string
		watch  string
		prefix string
		keep   bool
	)

	cmd := &cobra.Command{
		Use:   "run SCRIPT...",
		Short: "Run Lua scripts",
		Long: `Run executes the given Lua scripts in order with the pubsub module
loaded, then runs deferred callbacks until none are left.

With --serve or --watch it keeps running until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := g.options(cmd)
			opts.Scripts = args
			opts.TapPaths = taps
			opts.WatchDir = watch
			opts.WatchPrefix = prefix

			a, err := app.New(opts)
			if err != nil {
				return err
			}
			if keep || watch != "" {
				return serve(cmd, a)
			}
			return finish(cmd, a)
		},
	}

	cmd.Flags().StringSliceVarP(&taps, "tap", "t", nil, "print events reaching these paths as JSON lines")
	cmd.Flags().StringVarP(&watch, "watch", "w", "", "publish changes below this directory")
	cmd.Flags().StringVar(&prefix, "prefix", "", "namespace prefix for watch events (default \"fs\")")
	cmd.Flags().BoolVar(&keep, "serve", false, "keep running until interrupted")
	return cmd
}
