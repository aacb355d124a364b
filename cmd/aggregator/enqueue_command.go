package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thirdcoast.systems/vidscan/internal/queue"
	"thirdcoast.systems/vidscan/internal/videoid"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var urls []string

	cmd := &cobra.Command{
		Use:   "enqueue [video_id...]",
		Short: "Queue aggregations for the worker",
		Long: "Queues one aggregation per video id. --url derives the id from a source\n" +
			"URL the same way the download stage does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append([]string(nil), args...)
			for _, u := range urls {
				id, err := videoid.FromURL(u)
				if err != nil {
					return fmt.Errorf("--url %q: %w", u, err)
				}
				ids = append(ids, id)
			}
			if len(ids) == 0 {
				return fmt.Errorf("nothing to enqueue: pass video ids or --url")
			}

			jobs, err := ctx.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				jobID, err := queue.Enqueue(cmd.Context(), jobs, id)
				if err != nil {
					return fmt.Errorf("enqueue %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, jobID)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&urls, "url", nil, "Source video URL (repeatable)")
	return cmd
}
