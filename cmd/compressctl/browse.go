package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"media-compressor/internal/client"
)

var browseCmd = &cobra.Command{
	Use:   "browse [dir]",
	Short: "List the browse directory, or move into dir first",
	Long: "Without arguments, list the server's current browse directory. With dir, move there " +
		"first: a relative name is joined to the current directory and \"..\" goes up one level.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			path, err := c.Move(ctx, args[0])
			if err != nil {
				return browseError(err)
			}
			fmt.Fprintln(out, headerStyle.Render(path))
		}

		listing, err := c.Browse(ctx)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Fprintln(out, headerStyle.Render(listing.Path))
		}
		for _, name := range listing.Files {
			fmt.Fprintln(out, "  "+pathStyle.Render(name))
		}
		if len(listing.Files) == 0 {
			fmt.Fprintln(out, dimStyle.Render("  (empty)"))
		}
		return nil
	},
}

func browseError(err error) error {
	var se *client.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case http.StatusConflict:
		return fmt.Errorf("cannot change directory while a run is in progress")
	case http.StatusNotFound:
		return fmt.Errorf("not a directory: %s", se.Body)
	default:
		return err
	}
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
