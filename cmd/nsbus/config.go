package main

import (
	"fmt"
	"slices"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/nsbus/internal/config/loader"
)

var configFormats = []string{"json", "toml", "yaml"}

func newConfigCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Config prints the settings nsbus would run with after merging the
defaults, the --config file, NSBUS_* environment variables and flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(configFormats, format) {
				return fmt.Errorf("unsupported format: %s (supported: json, toml, yaml)", format)
			}

			s, err := loader.Load(g.config)
			if err != nil {
				return err
			}
			if g.logLevel != "" {
				s.Log.Level = g.logLevel
			}
			if g.logFormat != "" {
				s.Log.Format = g.logFormat
			}
			if err := s.Validate(); err != nil {
				return err
			}

			out, err := encodeSettings(s, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, toml, yaml)")
	return cmd
}

func encodeSettings(s loader.Settings, format string) ([]byte, error) {
	switch format {
	case "toml":
		return toml.Marshal(s)
	case "yaml":
		return yaml.Marshal(s)
	default:
		return settingsJSON(s)
	}
}

// settingsJSON encodes s with keys in a stable order.
func settingsJSON(s loader.Settings) ([]byte, error) {
	out := []byte("{}")
	m := s.Map()

	sections := make([]string, 0, len(m))
	for k := range m {
		sections = append(sections, k)
	}
	sort.Strings(sections)

	for _, section := range sections {
		fields, _ := m[section].(map[string]any)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			var err error
			out, err = sjson.SetBytes(out, section+"."+k, fields[k])
			if err != nil {
				return nil, err
			}
		}
	}
	return pretty.Pretty(out), nil
}
