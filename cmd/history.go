package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/history"
)

func printHistory(w io.Writer, items []history.Item) {
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", it.LastVisit.Format(time.DateTime), it.VisitCounter, it.URL, it.Title)
	}
}

func (a *app) historyCmd() *cobra.Command {
	var (
		title    string
		days     int
		maxItems int
	)

	root := &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "Browsing history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	visit := &cobra.Command{
		Use:   "visit URL",
		Short: "Record a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.InsertOrRefresh(cmd.Context(), history.NewItem(args[0], title))
		},
	}
	visit.Flags().StringVarP(&title, "title", "t", "", "page title")

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list", "l"},
		Short:   "List recent history, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items := a.svc.GetHistoryItems(cmd.Context(), days, maxItems)
			return a.output(cmd.OutOrStdout(), items, func(w io.Writer) { printHistory(w, items) })
		},
	}
	ls.Flags().IntVar(&days, "days", 7, "how many days back")
	ls.Flags().IntVar(&maxItems, "max", 50, "maximum number of items")

	get := &cobra.Command{
		Use:   "get URL",
		Short: "Show the history of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.svc.GetHistoryItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), it, func(w io.Writer) {
				printHistory(w, []history.Item{it})
			})
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the number of history items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.svc.GetHistoryCount(cmd.Context())
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), n, func(w io.Writer) { fmt.Fprintln(w, n) })
		},
	}

	rm := &cobra.Command{
		Use:     "rm URL",
		Aliases: []string{"remove", "r"},
		Short:   "Remove the history of a URL",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.DeleteHistoryItem(cmd.Context(), args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the whole history and its favicons",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.svc.DeleteAllHistory(cmd.Context())
		},
	}

	root.AddCommand(visit, ls, get, count, rm, clearCmd)

	return root
}
