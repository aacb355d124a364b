package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"thirdcoast.systems/vidscan/internal/aggregate"
	"thirdcoast.systems/vidscan/pkg/utils/format"
)

// runOutput is the --json shape of one run.
type runOutput struct {
	VideoID  string            `json:"video_id"`
	OK       bool              `json:"ok"`
	State    aggregate.State   `json:"state"`
	Error    string            `json:"error,omitempty"`
	Stages   map[string]string `json:"stages"`
	Duration string            `json:"duration"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run [video_id...]",
		Short: "Aggregate the stage documents of one or more videos",
		Long: "Runs one aggregation pass per video id. Without arguments the id is read\n" +
			"from VIDEO_ID. Exits non-zero when any run rolled back.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := videoIDsFromArgs(args, os.Getenv("VIDEO_ID"))
			if err != nil {
				return err
			}
			runner, err := ctx.Runner(cmd.Context())
			if err != nil {
				return err
			}

			var failed int
			outputs := make([]runOutput, 0, len(ids))
			for _, id := range ids {
				res := runner.Run(cmd.Context(), id)
				if !res.OK {
					failed++
				}
				out := newRunOutput(res)
				outputs = append(outputs, out)
				if !jsonOut {
					fmt.Fprintln(cmd.OutOrStdout(), formatRunLine(out))
				}
			}
			if jsonOut {
				if err := writeJSON(cmd, outputs); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d runs rolled back", failed, len(ids))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}

func videoIDsFromArgs(args []string, envID string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if id := strings.TrimSpace(envID); id != "" {
		return []string{id}, nil
	}
	return nil, fmt.Errorf("no video id given and VIDEO_ID is not set")
}

func newRunOutput(res aggregate.Result) runOutput {
	out := runOutput{
		VideoID:  res.VideoID,
		OK:       res.OK,
		State:    res.State,
		Error:    res.Cause(),
		Stages:   make(map[string]string, len(res.Stages)),
		Duration: format.JobDuration(res.Duration),
	}
	for kind, o := range res.Stages {
		out.Stages[kind.String()] = string(o.Status)
	}
	return out
}

func formatRunLine(out runOutput) string {
	kinds := make([]string, 0, len(out.Stages))
	for k := range out.Stages {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s\t%s", out.VideoID, out.State, out.Duration)
	for _, k := range kinds {
		fmt.Fprintf(&b, "\t%s=%s", k, out.Stages[k])
	}
	if out.Error != "" {
		fmt.Fprintf(&b, "\terror=%q", out.Error)
	}
	return b.String()
}
