package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"plancraft/internal/formatting"
	"plancraft/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var showRuns bool
	cmd := &cobra.Command{
		Use:   "history <planID>",
		Short: "Summarize the run history of a test plan",
		Long: `Fetch the runs of a test plan and show pass rate, average duration
and the time of the last completed run. Runs still queued or running are
not counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			c, err := env.newClient(ctx)
			if err != nil {
				return err
			}
			runs, err := c.ListRuns(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list runs of test plan %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, env.formatter.FormatKPIs(args[0], history.Summarize(runs)))
			if showRuns {
				if env.formatter.GetOptions().Format != formatting.FormatTable {
					fmt.Fprintln(out, env.formatter.FormatValue(runs))
					return nil
				}
				fmt.Fprintln(out, env.formatter.FormatRows([]string{"Run", "Status", "Started", "Duration"}, runRows(runs)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showRuns, "runs", false, "Also list the individual runs")
	return cmd
}

func runRows(runs []history.Run) [][]string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		started := ""
		if !r.StartedAt.IsZero() {
			started = r.StartedAt.Local().Format("2006-01-02 15:04")
		}
		duration := ""
		if d := r.Duration(); d > 0 {
			duration = d.String()
		}
		rows[i] = []string{r.ID, r.Status, started, duration}
	}
	return rows
}
