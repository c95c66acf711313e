package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/session"
)

var ErrSessionNotFound = errors.New("session not found")

func printSession(w io.Writer, s *session.Session) {
	fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Modified.Format(time.DateTime), s.Name)

	for _, id := range s.TabIDs() {
		t := s.Tabs[id]
		fmt.Fprintf(w, "  %s\t%s\t%s\n", id, t.URL, t.Title)
	}
}

func (a *app) sessionCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "session",
		Short: "Saved sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	// find returns the stored session with the given id argument.
	find := func(cmd *cobra.Command, arg string) (*session.Session, error) {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}

		all, err := a.svc.Sessions().AllSessions(cmd.Context())
		if err != nil {
			return nil, err
		}

		for i := range all {
			if all[i].ID == id {
				return &all[i], nil
			}
		}

		return nil, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}

	create := &cobra.Command{
		Use:   "new [NAME]",
		Short: "Create an empty session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}

			s, err := a.svc.Sessions().CreateSession(cmd.Context(), name)
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), s, func(w io.Writer) { printSession(w, s) })
		},
	}

	last := &cobra.Command{
		Use:   "last",
		Short: "Show the most recent session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.svc.Sessions().LastSession(cmd.Context())
			if err != nil {
				return err
			}

			if s == nil {
				return ErrSessionNotFound
			}

			return a.output(cmd.OutOrStdout(), s, func(w io.Writer) { printSession(w, s) })
		},
	}

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list", "l"},
		Short:   "List sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := a.svc.Sessions().AllSessions(cmd.Context())
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), all, func(w io.Writer) {
				for i := range all {
					printSession(w, &all[i])
				}
			})
		},
	}

	tab := &cobra.Command{
		Use:   "tab SESSION_ID TAB_ID URL [TITLE]",
		Short: "Add or replace a tab of a session",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := find(cmd, args[0])
			if err != nil {
				return err
			}

			t := session.Tab{URL: args[2]}
			if len(args) == 4 {
				t.Title = args[3]
			}

			return a.svc.Sessions().UpdateItem(cmd.Context(), s, args[1], t)
		},
	}

	untab := &cobra.Command{
		Use:   "untab SESSION_ID TAB_ID",
		Short: "Remove a tab from a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := find(cmd, args[0])
			if err != nil {
				return err
			}

			return a.svc.Sessions().RemoveItem(cmd.Context(), s, args[1])
		},
	}

	rename := &cobra.Command{
		Use:   "rename SESSION_ID NAME",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := find(cmd, args[0])
			if err != nil {
				return err
			}

			return a.svc.Sessions().Rename(cmd.Context(), s, args[1])
		},
	}

	rm := &cobra.Command{
		Use:     "rm SESSION_ID",
		Aliases: []string{"remove", "r"},
		Short:   "Remove a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := find(cmd, args[0])
			if err != nil {
				return err
			}

			return a.svc.Sessions().DeleteSession(cmd.Context(), s)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.svc.Sessions().DeleteAll(cmd.Context())
		},
	}

	root.AddCommand(create, last, ls, tab, untab, rename, rm, clearCmd)

	return root
}
