package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"media-compressor/internal/client"
	"media-compressor/internal/tui"
)

var startWatch bool

var startCmd = &cobra.Command{
	Use:   "start [-- ffmpeg options...]",
	Short: "Start compressing the current browse directory",
	Long: "Start a run over the server's current browse directory. Everything after -- is " +
		"passed to the encoder unchanged, for example: compressctl start -- -c:v libx265 -crf 28",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		msg, err := c.Start(ctx, args)
		if err != nil {
			if client.IsConflict(err) {
				return fmt.Errorf("a run is already in progress")
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(msg))

		if !startWatch {
			return nil
		}
		return runWatch(c, true)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the current run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		msg, err := newClient().Stop(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(msg))
		return nil
	},
}

var (
	watchInterval   = tui.DefaultInterval
	watchExitOnIdle bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show live progress of the current run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(newClient(), watchExitOnIdle)
	},
}

func runWatch(c *client.Client, exitWhenIdle bool) error {
	final, err := tea.NewProgram(tui.NewModel(c, watchInterval, exitWhenIdle)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func init() {
	startCmd.Flags().BoolVarP(&startWatch, "watch", "w", false, "watch progress until the run ends")
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", tui.DefaultInterval, "polling interval")
	watchCmd.Flags().BoolVar(&watchExitOnIdle, "exit", false, "exit when the run ends")

	rootCmd.AddCommand(startCmd, stopCmd, watchCmd)
}
