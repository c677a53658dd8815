package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/fitness/charts"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/model"
	"github.com/pthm-cable/fitness/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless simulation",
		Long: `Run a simulation without a display for a fixed number of steps.

The step series is kept in memory and can be written as CSV (--output-dir),
appended to a SQLite database (--sqlite) and drawn as PNG charts (--plot).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetUint64("seed")
			steps, _ := cmd.Flags().GetInt("steps")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			sqlitePath, _ := cmd.Flags().GetString("sqlite")
			agents, _ := cmd.Flags().GetBool("agents")
			logStats, _ := cmd.Flags().GetBool("log-stats")
			plot, _ := cmd.Flags().GetBool("plot")
			stopOnExtinction, _ := cmd.Flags().GetBool("stop-on-extinction")

			cfg := config.Cfg().Clone()
			if agents {
				cfg.Telemetry.AgentRows = true
			}
			if !logStats {
				cfg.Telemetry.LogInterval = 0
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runHeadless(ctx, cfg, runOptions{
				seed:             resolveSeed(seed),
				steps:            steps,
				outputDir:        outputDir,
				sqlitePath:       sqlitePath,
				plot:             plot,
				stopOnExtinction: stopOnExtinction,
			})
		},
	}

	cmd.Flags().Uint64("seed", 0, "RNG seed (0 = time-based)")
	cmd.Flags().Int("steps", 1000, "Number of steps to run")
	cmd.Flags().String("output-dir", "", "Directory for CSV series and config snapshot")
	cmd.Flags().String("sqlite", "", "SQLite database to append the run to")
	cmd.Flags().Bool("agents", false, "Record per-agent rows every step")
	cmd.Flags().Bool("log-stats", false, "Log step statistics via slog")
	cmd.Flags().Bool("plot", false, "Write PNG charts when the run ends")
	cmd.Flags().Bool("stop-on-extinction", false, "End the run when the population dies out")

	return cmd
}

type runOptions struct {
	seed             uint64
	steps            int
	outputDir        string
	sqlitePath       string
	plot             bool
	stopOnExtinction bool
}

func runHeadless(ctx context.Context, cfg *config.Config, opts runOptions) (err error) {
	runID := uuid.NewString()

	var sinks []telemetry.Sink
	om, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return err
		}
		sinks = append(sinks, om)
	}
	if opts.sqlitePath != "" {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		// The database outlives an interrupt so the final steps still land.
		db, err := telemetry.OpenSQLite(context.WithoutCancel(ctx), opts.sqlitePath, runID, opts.seed, data)
		if err != nil {
			return err
		}
		sinks = append(sinks, db)
	}

	m, err := model.New(cfg, opts.seed, sinks...)
	if err != nil {
		for _, s := range sinks {
			s.Close()
		}
		return err
	}
	rec := m.Recorder()
	defer func() {
		err = errors.Join(err, rec.Err(), rec.Close())
	}()

	slog.Info("starting headless simulation",
		"run_id", runID,
		"seed", opts.seed,
		"steps", opts.steps,
		"population", m.Population(),
	)

	for m.Running() {
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", m.Tick())
			break
		}
		m.Step()
		if opts.stopOnExtinction && m.Extinct() {
			m.Stop()
			break
		}
		if opts.steps > 0 && int(m.Tick()) >= opts.steps {
			slog.Info("max steps reached", "tick", m.Tick())
			break
		}
	}

	if last, ok := rec.Last(); ok {
		slog.Info("run finished",
			"run_id", runID,
			"tick", last.Step,
			"population", last.Population,
			"avg_fitness", last.AvgFitness,
			"extinct", m.Extinct(),
			"bookmarks", len(rec.Bookmarks()),
		)
	}

	if opts.plot {
		dir := opts.outputDir
		if dir == "" {
			dir = "."
		}
		paths, err := charts.WriteAll(dir, rec.Series())
		if err != nil {
			return fmt.Errorf("writing charts: %w", err)
		}
		slog.Info("charts written", "files", paths)
	}
	return nil
}
