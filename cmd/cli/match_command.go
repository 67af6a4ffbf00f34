package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/envelope"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var hint, width float64

	cmd := &cobra.Command{
		Use:   "match <reference> <clip>",
		Short: "Find where a recorded clip sits inside a reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ref, refRate, err := ctx.loadAudio(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			clip, clipRate, err := ctx.loadAudio(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			refSeconds := float64(len(ref)) / float64(refRate)
			m, err := matcher.New(envelope.Build(ref, refRate, refSeconds), cfg.Thresholds())
			if err != nil {
				return err
			}

			scan := matcher.GlobalScan()
			if cmd.Flags().Changed("hint") {
				scan = matcher.LocalScan(hint, width)
			}
			live := envelope.Extract(clip, clipRate, m.RateHz())
			res := m.Match(live, scan)

			rows := [][]string{
				{"Outcome", res.Outcome.String()},
				{"Offset", fmt.Sprintf("%.2fs", res.OffsetSeconds)},
				{"Clip start", fmt.Sprintf("%.2fs", float64(res.StartIndex)/float64(m.RateHz()))},
				{"Confidence", fmt.Sprintf("%.1f%%", res.ConfidencePercent)},
				{"Candidates", fmt.Sprintf("%d", res.Candidates)},
				{"Clip length", fmt.Sprintf("%.2fs (%d points)", float64(len(clip))/float64(clipRate), len(live))},
				{"Reference", fmt.Sprintf("%.2fs (%d points)", refSeconds, m.Len())},
			}
			if res.Outcome != matcher.OutcomeMatched {
				rows = rows[:1]
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"FIELD", "VALUE"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().Float64Var(&hint, "hint", 0, "Expected end of the clip in reference seconds (enables a local scan)")
	cmd.Flags().Float64Var(&width, "width", 120, "Local scan half-width in seconds")
	return cmd
}
