package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"media-compressor/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the current run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		state, err := newClient().State(ctx)
		if err != nil {
			return err
		}

		running := "no"
		if state.IsProcessing {
			running = "yes"
		}
		if state.ShouldStop {
			running = "stopping"
		}
		current := state.CurrentFile
		if current == "" {
			current = "-"
		}

		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary([]tui.SummaryRow{
			{Label: "Processing", Value: running},
			{Label: "Files", Value: fmt.Sprintf("%d/%d", state.ProcessedFiles, state.TotalFiles)},
			{Label: "Current file", Value: current},
			{Label: "Progress", Value: strconv.FormatFloat(state.CurrentProgressPercent, 'f', 1, 64) + "%"},
			{Label: "Browse dir", Value: state.CurrentPath},
		}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
