package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/fitness/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration that a run would use, as YAML: the embedded
defaults merged with --config. The configuration is validated first.`,
		Example: `  fitness config
  fitness config --config experiment.yaml > resolved.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			if err := cfg.Validate(); err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
