package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJobsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "Show the backend's queued and running jobs",
		Args:  cobra.NoArgs,
		RunE: withApp(root, func(cmd *cobra.Command, _ []string, app *App) error {
			stats, err := app.Client.QueueStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queued jobs:  %d\n", stats.QueuedJobs)
			fmt.Fprintf(out, "Running jobs: %d\n", stats.RunningJobs)
			return nil
		}),
	}
}
