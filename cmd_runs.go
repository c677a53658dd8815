package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/fitness/telemetry"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <database>",
		Short: "List runs stored in a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := telemetry.OpenDB(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := telemetry.ListRuns(ctx, db)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSEED\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%d\t%s\n", r.ID, r.Seed, r.StartedAt.Format(time.DateTime))
			}
			return w.Flush()
		},
	}
	return cmd
}
