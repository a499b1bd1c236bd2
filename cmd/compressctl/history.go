package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"media-compressor/internal/history"
	"media-compressor/internal/tui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recent runs, or show one run with its items",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			run, err := c.Run(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tui.RenderSummary(runRows(*run)))
			for _, it := range run.Items {
				line := fmt.Sprintf("%s %s", tui.StatusStyle(it.Status).Render(fmt.Sprintf("%-9s", it.Status)), pathStyle.Render(it.Path))
				if it.Error != "" {
					line += " " + errorStyle.Render(it.Error)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		}

		runs, err := c.History(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, dimStyle.Render("no runs recorded"))
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(out, "%s %s %s %s\n",
				headerStyle.Render(fmt.Sprintf("#%-4d", run.ID)),
				dimStyle.Render(run.StartedAt.Local().Format(time.DateTime)),
				pathStyle.Render(fmt.Sprintf("%-10s", run.Outcome)),
				dimStyle.Render(fmt.Sprintf("%d/%d files, saved %s", run.ProcessedFiles, run.TotalFiles, tui.FormatBytes(run.BytesSaved))),
			)
		}
		return nil
	},
}

func runRows(run history.Run) []tui.SummaryRow {
	finished := "-"
	if run.FinishedAt != nil {
		finished = run.FinishedAt.Local().Format(time.DateTime)
	}
	options := strings.Join(run.Options, " ")
	if options == "" {
		options = "-"
	}
	return []tui.SummaryRow{
		{Label: "Run", Value: strconv.FormatInt(run.ID, 10)},
		{Label: "Root", Value: run.Root},
		{Label: "Options", Value: options},
		{Label: "Started", Value: run.StartedAt.Local().Format(time.DateTime)},
		{Label: "Finished", Value: finished},
		{Label: "Outcome", Value: string(run.Outcome)},
		{Label: "Files", Value: fmt.Sprintf("%d/%d", run.ProcessedFiles, run.TotalFiles)},
		{Label: "Finished/skipped/failed", Value: fmt.Sprintf("%d/%d/%d", run.Finished, run.Skipped, run.Failed)},
		{Label: "Bytes saved", Value: tui.FormatBytes(run.BytesSaved)},
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list")
	rootCmd.AddCommand(historyCmd)
}
