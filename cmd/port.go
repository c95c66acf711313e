package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/bookmark"
	"github.com/mateconpizza/webstore/internal/port"
)

func (a *app) importCmd() *cobra.Command {
	var dirID int64

	c := &cobra.Command{
		Use:     "import FILE",
		Aliases: []string{"imp", "i"},
		Short:   "Import a Netscape bookmark file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening bookmark file: %w", err)
			}
			defer f.Close()

			stats, err := port.ImportNetscape(cmd.Context(), f, a.svc.Bookmarks(), dirID)
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), stats, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d directories and %d bookmarks, skipped %d\n",
					stats.Directories, stats.Bookmarks, stats.Skipped)
			})
		},
	}
	c.Flags().Int64VarP(&dirID, "dir", "d", bookmark.RootID, "directory to import into")

	return c
}

func (a *app) exportCmd() *cobra.Command {
	var dirID int64

	c := &cobra.Command{
		Use:     "export [FILE]",
		Aliases: []string{"exp", "e"},
		Short:   "Export bookmarks as a Netscape bookmark file (stdout by default)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return port.ExportNetscape(cmd.Context(), cmd.OutOrStdout(), a.svc.Bookmarks(), dirID)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}

			if err := port.ExportNetscape(cmd.Context(), f, a.svc.Bookmarks(), dirID); err != nil {
				_ = f.Close()
				return err
			}

			return f.Close()
		},
	}
	c.Flags().Int64VarP(&dirID, "dir", "d", bookmark.RootID, "directory to export")

	return c
}
