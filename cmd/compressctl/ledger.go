package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"media-compressor/internal/ledger"
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var ledgerYes bool

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or edit the ledger of compressed files",
	Long: "The ledger commands read and write the ledger document directly, without a server. " +
		"A running server using the same document picks up added entries when its next run starts.",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every recorded path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openExistingLedger(ledgerPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range l.Paths() {
			fmt.Fprintln(out, p)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(fmt.Sprintf("%d entries in %s", l.Len(), l.Path())))
		return nil
	},
}

var ledgerCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Report whether files are recorded as compressed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openExistingLedger(ledgerPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, arg := range args {
			p, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			if l.Contains(p) {
				fmt.Fprintf(out, "%s %s\n", okStyle.Render("recorded    "), pathStyle.Render(p))
			} else {
				fmt.Fprintf(out, "%s %s\n", warnStyle.Render("not recorded"), pathStyle.Render(p))
			}
		}
		return nil
	},
}

var ledgerAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Record files as compressed so runs skip them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := resolveFiles(args)
		if err != nil {
			return err
		}

		if !ledgerYes {
			if !stdinIsTerminal() {
				return errors.New("refusing to modify the ledger without --yes when stdin is not a terminal")
			}
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Record %d file(s) in %s?", len(paths), ledgerPath))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("aborted"))
				return nil
			}
		}

		l, err := ledger.Open(ledgerPath)
		if err != nil {
			return err
		}
		added := 0
		for _, p := range paths {
			if l.Contains(p) {
				continue
			}
			if err := l.Record(p); err != nil {
				return err
			}
			added++
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("recorded %d new file(s), %d entries total", added, l.Len())))
		return nil
	},
}

// openExistingLedger opens the document at path without creating it.
func openExistingLedger(path string) (*ledger.Ledger, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no ledger at %s", path)
		}
		return nil, err
	}
	return ledger.Open(path)
}

// resolveFiles makes every argument absolute and checks that it is a
// regular file.
func resolveFiles(args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		p, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", p)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func init() {
	ledgerAddCmd.Flags().BoolVarP(&ledgerYes, "yes", "y", false, "do not ask for confirmation")
	ledgerCmd.AddCommand(ledgerListCmd, ledgerCheckCmd, ledgerAddCmd)
	rootCmd.AddCommand(ledgerCmd)
}
