package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/fitness/charts"
	"github.com/pthm-cable/fitness/telemetry"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw charts of a recorded run",
		Long: `Draw population and fitness charts as PNG files.

The series is read from a model.csv written by "run --output-dir", or from
a SQLite database written by "run --sqlite". Without --run the most recent
run in the database is used.`,
		Example: `  fitness plot --csv out/model.csv --out out
  fitness plot --sqlite runs.db --run 3f6c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			dbPath, _ := cmd.Flags().GetString("sqlite")
			runID, _ := cmd.Flags().GetString("run")
			out, _ := cmd.Flags().GetString("out")

			var (
				series []telemetry.StepStats
				err    error
			)
			switch {
			case csvPath != "" && dbPath != "":
				return fmt.Errorf("--csv and --sqlite are mutually exclusive")
			case csvPath != "":
				series, err = telemetry.ReadSteps(csvPath)
			case dbPath != "":
				series, err = loadRun(cmd.Context(), dbPath, runID)
			default:
				return fmt.Errorf("one of --csv or --sqlite is required")
			}
			if err != nil {
				return err
			}

			paths, err := charts.WriteAll(out, series)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			slog.Debug("charts written", "steps", len(series), "dir", out)
			return nil
		},
	}

	cmd.Flags().String("csv", "", "Path to a model.csv step series")
	cmd.Flags().String("sqlite", "", "Path to a SQLite run database")
	cmd.Flags().String("run", "", "Run ID within the database (default: latest)")
	cmd.Flags().String("out", ".", "Directory for the PNG files")

	return cmd
}

func loadRun(ctx context.Context, path, runID string) ([]telemetry.StepStats, error) {
	db, err := telemetry.OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if runID == "" {
		runs, err := telemetry.ListRuns(ctx, db)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("no runs in %s", path)
		}
		runID = runs[len(runs)-1].ID
	}
	steps, err := telemetry.LoadSteps(ctx, db, runID)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("run %s has no steps", runID)
	}
	return steps, nil
}
