package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fitness",
		Short: "Spatial mate-choice ecology simulation",
		Long: `fitness runs a grid-based population of carriers and givers whose
feeding success depends on heritable fitness and on a habitability level
that tightens as the population grows. Choosy carriers wait for the
fittest nearby giver before committing to a pregnancy.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			slog.SetDefault(logging.NewLogger(level, format, os.Stderr))

			configPath, _ := cmd.Flags().GetString("config")
			if err := config.Init(configPath); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (empty = use defaults)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newPlotCmd(),
		newRunsCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveSeed returns seed, or a time-based seed when it is zero.
func resolveSeed(seed uint64) uint64 {
	if seed == 0 {
		return uint64(time.Now().UnixNano())
	}
	return seed
}
