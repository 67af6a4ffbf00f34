package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/envelope"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

type envelopeSummary struct {
	Points    int
	Seconds   float64
	Mean      float64
	StdDev    float64
	Min       float64
	Max       float64
	Silent    int // points below the matcher's energy floor
	Matchable bool
}

func summarizeEnvelope(fp envelope.Fingerprint) envelopeSummary {
	s := envelopeSummary{Points: len(fp.Envelope), Seconds: fp.Seconds()}
	if s.Points == 0 {
		return s
	}
	s.Mean, s.StdDev = stat.PopMeanStdDev(fp.Envelope, nil)
	s.Min = floats.Min(fp.Envelope)
	s.Max = floats.Max(fp.Envelope)
	for _, v := range fp.Envelope {
		if v < matcher.EnergyFloor {
			s.Silent++
		}
	}
	s.Matchable = s.Mean >= matcher.EnergyFloor && s.StdDev*s.StdDev >= matcher.FlatnessFloor
	return s
}

func newEnvelopeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "envelope <file>",
		Short: "Print the energy envelope summary of an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, rate, err := ctx.loadAudio(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			seconds := float64(len(samples)) / float64(rate)
			s := summarizeEnvelope(envelope.Build(samples, rate, seconds))

			rows := [][]string{
				{"Source", fmt.Sprintf("%d samples @ %d Hz (%.2fs)", len(samples), rate, seconds)},
				{"Points", fmt.Sprintf("%d @ %d Hz", s.Points, envelope.DefaultRateHz)},
				{"Mean RMS", fmt.Sprintf("%.5f", s.Mean)},
				{"Std dev", fmt.Sprintf("%.5f", s.StdDev)},
				{"Min / Max", fmt.Sprintf("%.5f / %.5f", s.Min, s.Max)},
				{"Silent points", fmt.Sprintf("%d", s.Silent)},
				{"Matchable", yesNo(s.Matchable)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"FIELD", "VALUE"}, rows, nil))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
