package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/bookmark"
)

func (a *app) dirCmd() *cobra.Command {
	var parentID int64

	root := &cobra.Command{
		Use:     "dir",
		Aliases: []string{"d", "directory"},
		Short:   "Directories management",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.svc.Bookmarks().AddDirectory(cmd.Context(), args[0], parentID)
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), id, func(w io.Writer) { fmt.Fprintln(w, id) })
		},
	}
	add.Flags().Int64VarP(&parentID, "parent", "p", bookmark.RootID, "parent directory id")

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "r"},
		Short:   "Remove a directory with its contents",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.svc.Bookmarks().RemoveDirectory(cmd.Context(), id)
		},
	}

	path := &cobra.Command{
		Use:   "path ID",
		Short: "Print the path of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			p, err := a.svc.Bookmarks().GetDirectoryPath(cmd.Context(), id)
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintln(w, bookmark.PathString(p))
			})
		},
	}

	ls := &cobra.Command{
		Use:     "ls [ID]",
		Aliases: []string{"list", "l"},
		Short:   "List the contents of a directory, folders first",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := bookmark.RootID
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}

			bs := a.svc.Bookmarks().GetDirectoryContents(cmd.Context(), id)

			return a.output(cmd.OutOrStdout(), bs, func(w io.Writer) { printBookmarks(w, bs) })
		},
	}

	mv := &cobra.Command{
		Use:     "mv ID PARENT",
		Aliases: []string{"move"},
		Short:   "Move a directory under another",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			parent, err := parseID(args[1])
			if err != nil {
				return err
			}

			return a.svc.Bookmarks().MoveDirectory(cmd.Context(), id, parent)
		},
	}

	rename := &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.svc.Bookmarks().RenameDirectory(cmd.Context(), id, args[1])
		},
	}

	root.AddCommand(add, rm, path, ls, mv, rename)

	return root
}

func (a *app) tagCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"t", "tags"},
		Short:   "Tags management",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a tag, printing its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.svc.Bookmarks().AddTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), id, func(w io.Writer) { fmt.Fprintln(w, id) })
		},
	}

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list", "l"},
		Short:   "List tags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, err := a.svc.Bookmarks().GetAllTags(cmd.Context())
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), tags, func(w io.Writer) {
				for _, t := range tags {
					fmt.Fprintf(w, "%d\t%s\n", t.ID, t.Name)
				}
			})
		},
	}

	// pair parses TAG_ID BOOKMARK_ID.
	pair := func(args []string) (int64, int64, error) {
		tagID, err := parseID(args[0])
		if err != nil {
			return 0, 0, err
		}

		bookmarkID, err := parseID(args[1])

		return tagID, bookmarkID, err
	}

	set := &cobra.Command{
		Use:   "set TAG_ID BOOKMARK_ID",
		Short: "Tag a bookmark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, bookmarkID, err := pair(args)
			if err != nil {
				return err
			}

			return a.svc.Bookmarks().TagBookmark(cmd.Context(), tagID, bookmarkID)
		},
	}

	unset := &cobra.Command{
		Use:   "unset TAG_ID BOOKMARK_ID",
		Short: "Untag a bookmark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, bookmarkID, err := pair(args)
			if err != nil {
				return err
			}

			return a.svc.Bookmarks().UntagBookmark(cmd.Context(), tagID, bookmarkID)
		},
	}

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "r"},
		Short:   "Remove a tag from every bookmark and delete it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.svc.Bookmarks().DeleteTag(cmd.Context(), id)
		},
	}

	root.AddCommand(add, ls, set, unset, rm)

	return root
}
