package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"media-compressor/internal/client"
	"media-compressor/internal/logging"
	"media-compressor/internal/tui"
)

const defaultLedgerPath = "/mnt/storage/compressedVideos.json"

var (
	serverURL  string
	ledgerPath string
	timeout    time.Duration
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "compressctl",
	Short: "compressctl - control a media-compressor server",
	Long: "compressctl talks to a running media-compressor server to start and stop runs, " +
		"watch progress and browse the media tree. The ledger commands work on the ledger document directly.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetLevel(logging.LevelDebug)
		} else {
			logging.SetLevel(logging.LevelWarn)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&serverURL, "server", "s", envOr("COMPRESSCTL_SERVER", client.DefaultBaseURL), "media-compressor server address")
	flags.StringVar(&ledgerPath, "ledger", envOr("LEDGER_PATH", defaultLedgerPath), "ledger document used by the ledger commands")
	flags.DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newClient() *client.Client {
	return client.New(serverURL)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	pathStyle   = lipgloss.NewStyle().Foreground(tui.ColorInk)
	dimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
	okStyle     = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	warnStyle   = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	errorStyle  = lipgloss.NewStyle().Foreground(tui.ColorError)
)
