package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJobsCommand(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "trigger [warmup|cleanup]",
		Short:     "Enqueue a maintenance job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"warmup", "cleanup"},
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := rt.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			id, err := queue.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "enqueued %s: %s\n", args[0], id)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show default queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := rt.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := queue.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
			return nil
		},
	})
	return cmd
}
