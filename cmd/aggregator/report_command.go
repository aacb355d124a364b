package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"thirdcoast.systems/vidscan/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut, markdownOut bool

	cmd := &cobra.Command{
		Use:   "report <video_id>",
		Short: "Show everything aggregated for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.Reports(cmd.Context())
			if err != nil {
				return err
			}
			r, err := report.Load(cmd.Context(), src, args[0])
			if errors.Is(err, report.ErrNotFound) {
				return fmt.Errorf("video %s has not been aggregated", args[0])
			}
			if err != nil {
				return err
			}
			switch {
			case jsonOut:
				return writeJSON(cmd, r)
			case markdownOut:
				_, err := fmt.Fprint(cmd.OutOrStdout(), report.Markdown(r))
				return err
			}
			return report.Render(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&markdownOut, "markdown", false, "Print the report as markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}
