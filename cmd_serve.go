package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/model"
	"github.com/pthm-cable/fitness/stream"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a simulation and stream it over HTTP and websocket",
		Long: `Run a simulation at a fixed pace and serve it.

Endpoints:
  GET  /series[?since=N]  recorded step series as JSON
  GET  /series/last       most recent step
  GET  /agents            per-agent rows of the last step (--agents)
  GET  /bookmarks         detected crashes, recoveries and strategy shifts
  GET  /config            effective configuration as YAML
  GET  /status            step, pause state and client count
  POST /pause /resume /stop
  GET  /ws                websocket feed of every new step`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			interval, _ := cmd.Flags().GetDuration("interval")
			steps, _ := cmd.Flags().GetInt("steps")
			seed, _ := cmd.Flags().GetUint64("seed")
			agents, _ := cmd.Flags().GetBool("agents")

			cfg := config.Cfg().Clone()
			if agents {
				cfg.Telemetry.AgentRows = true
			}
			m, err := model.New(cfg, resolveSeed(seed))
			if err != nil {
				return err
			}
			defer m.Recorder().Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := stream.NewServer(m, interval)
			go func() {
				if err := srv.Run(ctx, steps); err != nil && !errors.Is(err, ctx.Err()) {
					slog.Error("simulation stopped", "error", err)
				}
				slog.Info("simulation finished, still serving", "tick", m.Tick())
			}()

			slog.Info("serving", "addr", addr, "interval", interval, "steps", steps)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.Flags().Duration("interval", 100*time.Millisecond, "Time between steps (0 = as fast as possible)")
	cmd.Flags().Int("steps", 0, "Stop stepping after N steps (0 = unlimited)")
	cmd.Flags().Uint64("seed", 0, "RNG seed (0 = time-based)")
	cmd.Flags().Bool("agents", false, "Record per-agent rows every step")

	return cmd
}
