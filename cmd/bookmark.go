package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/bookmark"
)

const thumbnailSize = 256

var ErrUnknownTag = errors.New("unknown tag")

func printBookmarks(w io.Writer, bs []bookmark.Bookmark) {
	for _, b := range bs {
		if b.IsFolder {
			fmt.Fprintf(w, "%d\t[%s]\n", b.ID, b.Title)
			continue
		}

		fmt.Fprintf(w, "%d\t%s\t%s\n", b.ID, b.URL, b.Title)
	}
}

// tagIDs resolves tag names, creating the missing ones when create is set.
func tagIDs(ctx context.Context, s *bookmark.Store, names []string, create bool) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(names))

	if create {
		for _, n := range names {
			id, err := s.AddTag(ctx, n)
			if err != nil {
				return nil, err
			}

			ids = append(ids, id)
		}

		return ids, nil
	}

	tags, err := s.GetAllTags(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(tags))
	for _, t := range tags {
		byName[t.Name] = t.ID
	}

	for _, n := range names {
		id, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTag, n)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func (a *app) bookmarkCmd() *cobra.Command {
	var (
		title, note string
		dirID       int64
		tags        []string
	)

	root := &cobra.Command{
		Use:     "bookmark",
		Aliases: []string{"b", "bm"},
		Short:   "Bookmarks management",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	add := &cobra.Command{
		Use:   "add URL",
		Short: "Add a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s := cmd.Context(), a.svc.Bookmarks()

			b := bookmark.New(args[0], title, dirID)
			b.Note = note

			var err error
			if b.Tags, err = tagIDs(ctx, s, tags, true); err != nil {
				return err
			}

			if err := s.Upsert(ctx, b); err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), b, func(w io.Writer) {
				fmt.Fprintln(w, b.ID)
			})
		},
	}
	add.Flags().StringVarP(&title, "title", "t", "", "bookmark title")
	add.Flags().StringVarP(&note, "note", "n", "", "bookmark note")
	add.Flags().Int64VarP(&dirID, "dir", "d", bookmark.RootID, "directory id")
	add.Flags().StringSliceVar(&tags, "tag", nil, "tag names")

	var (
		listDir  int64
		listTags []string
	)

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List bookmarks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, s := cmd.Context(), a.svc.Bookmarks()

			var bs []bookmark.Bookmark

			switch {
			case len(listTags) > 0:
				ids, err := tagIDs(ctx, s, listTags, false)
				if err != nil {
					return err
				}

				bs = s.GetByTags(ctx, ids)
			case cmd.Flags().Changed("dir"):
				bs = s.GetByDirectory(ctx, listDir)
			default:
				bs = s.GetAll(ctx)
			}

			return a.output(cmd.OutOrStdout(), bs, func(w io.Writer) { printBookmarks(w, bs) })
		},
	}
	list.Flags().Int64VarP(&listDir, "dir", "d", bookmark.RootID, "only bookmarks in directory id")
	list.Flags().StringSliceVar(&listTags, "tag", nil, "only bookmarks with any of the tags")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			b, err := a.svc.Bookmarks().Find(cmd.Context(), id)
			if err != nil {
				return err
			}

			bs := []bookmark.Bookmark{b}
			if err := a.svc.DecorateFavicons(cmd.Context(), bs); err != nil {
				return err
			}

			b = bs[0]

			return a.output(cmd.OutOrStdout(), b, func(w io.Writer) {
				fmt.Fprintf(w, "id:    %d\nurl:   %s\ntitle: %s\nnote:  %s\ndir:   %d\ntags:  %v\n",
					b.ID, b.URL, b.Title, b.Note, b.DirectoryID, b.Tags)
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "r"},
		Short:   "Remove a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.svc.Bookmarks().DeleteByID(cmd.Context(), id)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every bookmark",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.svc.Bookmarks().ClearAll(cmd.Context())
		},
	}

	thumb := &cobra.Command{
		Use:   "thumb ID IMAGE",
		Short: "Set the thumbnail of a bookmark from an image file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			img, err := blob.Decode(data)
			if err != nil {
				return err
			}

			if img, err = blob.Thumbnail(img, thumbnailSize, thumbnailSize); err != nil {
				return err
			}

			ctx, s := cmd.Context(), a.svc.Bookmarks()

			b, err := s.Find(ctx, id)
			if err != nil {
				return err
			}

			b.Thumbnail = img

			return s.Upsert(ctx, &b)
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the number of bookmarks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.svc.Bookmarks().Count(cmd.Context())
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), n, func(w io.Writer) { fmt.Fprintln(w, n) })
		},
	}

	root.AddCommand(add, list, get, rm, clearCmd, thumb, count)

	return root
}
