package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"media-compressor/internal/queue"
	"media-compressor/internal/tui"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List the items of the current run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		items, err := newClient().Queue(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, dimStyle.Render("queue is empty"))
			return nil
		}

		for _, it := range items {
			size := fmt.Sprintf("%.1f MB", it.SizeMB)
			if it.NewSizeMB != nil {
				size += fmt.Sprintf(" -> %.1f MB", *it.NewSizeMB)
			}
			status := string(it.Status)
			if it.Status == queue.StatusActive {
				status = fmt.Sprintf("%s %.0f%%", status, it.ProgressPercent)
			}
			fmt.Fprintf(out, "%s %s %s\n",
				tui.StatusStyle(string(it.Status)).Render(fmt.Sprintf("%-10s", status)),
				pathStyle.Render(it.Path),
				dimStyle.Render(size),
			)
			if it.Error != "" {
				fmt.Fprintf(out, "           %s\n", errorStyle.Render(it.Error))
			}
		}

		counts := queue.Counts(items)
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d items: %d pending, %d finished, %d skipped, %d failed",
			len(items),
			counts[string(queue.StatusPending)],
			counts[string(queue.StatusFinished)],
			counts[string(queue.StatusSkipped)],
			counts[string(queue.StatusFailed)],
		)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
