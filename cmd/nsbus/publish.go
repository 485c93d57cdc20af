package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/nsbus/internal/app"
	"github.com/dshills/nsbus/internal/event"
)

func newPublishCmd(g *globalFlags) *cobra.Command {
	var (
		argsJSON  string
		scripts   []string
		taps      []string
		recurrent bool
		depth     int
		async     bool
	)

	cmd := &cobra.Command{
		Use:   "publish PATH",
		Short: "Publish one event",
		Long: `Publish runs the given scripts, publishes one event to PATH and waits
until all resulting work is done.

Arguments are a JSON array. Unless --tap is given, PATH itself is tapped.

Examples:
  nsbus publish user/login --args '["alice", 42]'
  nsbus publish a/b/c --recurrent --tap a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			values, err := app.ParseArgs(argsJSON)
			if err != nil {
				return err
			}

			opts := g.options(cmd)
			opts.Scripts = scripts
			opts.TapPaths = taps
			if len(opts.TapPaths) == 0 {
				opts.TapPaths = []string{path}
			}

			a, err := app.New(opts)
			if err != nil {
				return err
			}

			var pubOpts []event.PublishOption
			if cmd.Flags().Changed("recurrent") {
				pubOpts = append(pubOpts, event.Recurrent(recurrent))
			}
			if cmd.Flags().Changed("depth") {
				pubOpts = append(pubOpts, event.Depth(depth))
			}
			if cmd.Flags().Changed("async") {
				pubOpts = append(pubOpts, event.Async(async))
			}

			if err := a.Publish(path, values, pubOpts...); err != nil {
				_ = a.Close()
				return err
			}
			return finish(cmd, a)
		},
	}

	cmd.Flags().StringVarP(&argsJSON, "args", "a", "", "event arguments as a JSON array")
	cmd.Flags().StringSliceVarP(&scripts, "script", "s", nil, "Lua scripts to run first")
	cmd.Flags().StringSliceVarP(&taps, "tap", "t", nil, "print events reaching these paths as JSON lines")
	cmd.Flags().BoolVarP(&recurrent, "recurrent", "r", false, "bubble to ancestor paths")
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "bubbling depth limit (0 is unlimited)")
	cmd.Flags().BoolVar(&async, "async", false, "defer callbacks")
	return cmd
}
