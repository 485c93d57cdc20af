package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/nsbus/internal/app"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		scripts []string
		taps    []string
		prefix  string
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Publish file changes below a directory",
		Long: `Watch publishes every change below DIR as a recurrent event on
<prefix>/<relative path> with the arguments (operation, absolute path).

Unless --tap is given, the prefix itself is tapped, so every change is
printed as a JSON line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if prefix == "" {
				prefix = "fs"
			}

			opts := g.options(cmd)
			opts.Scripts = scripts
			opts.WatchDir = args[0]
			opts.WatchPrefix = prefix
			opts.TapPaths = taps
			if len(opts.TapPaths) == 0 {
				opts.TapPaths = []string{prefix}
			}

			a, err := app.New(opts)
			if err != nil {
				return err
			}
			return serve(cmd, a)
		},
	}

	cmd.Flags().StringSliceVarP(&scripts, "script", "s", nil, "Lua scripts to run first")
	cmd.Flags().StringSliceVarP(&taps, "tap", "t", nil, "print events reaching these paths as JSON lines")
	cmd.Flags().StringVar(&prefix, "prefix", "fs", "namespace prefix for change events")
	return cmd
}
