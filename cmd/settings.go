package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/settings"
)

var ErrUnknownKind = errors.New("unknown setting kind")

func (a *app) settingsCmd() *cobra.Command {
	var kind string

	root := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"s"},
		Short:   "Application settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&kind, "kind", "k", "text", "value kind [int|double|text]")

	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, key := cmd.Context(), args[0]

			var (
				v   any
				err error
			)

			switch kind {
			case "int":
				v, err = a.svc.GetInt(ctx, key, 0)
			case "double":
				v, err = a.svc.GetDouble(ctx, key, 0)
			case "text":
				v, err = a.svc.GetText(ctx, key, "")
			default:
				return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
			}

			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), v, func(w io.Writer) { fmt.Fprintln(w, v) })
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, key, raw := cmd.Context(), args[0], args[1]

			switch kind {
			case "int":
				v, err := strconv.Atoi(raw)
				if err != nil {
					return fmt.Errorf("invalid int %q: %w", raw, err)
				}

				return a.svc.SetInt(ctx, key, v)
			case "double":
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid double %q: %w", raw, err)
				}

				return a.svc.SetDouble(ctx, key, v)
			case "text":
				return a.svc.SetText(ctx, key, raw)
			default:
				return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
			}
		},
	}

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list", "l"},
		Short:   "List every setting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.svc.Settings().All(cmd.Context())
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), entries, func(w io.Writer) {
				for _, e := range entries {
					switch e.Kind {
					case settings.KindInt:
						fmt.Fprintf(w, "%s\t%d\n", e.Key, e.Int)
					case settings.KindDouble:
						fmt.Fprintf(w, "%s\t%g\n", e.Key, e.Double)
					case settings.KindText:
						fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Text)
					default:
						fmt.Fprintf(w, "%s\n", e.Key)
					}
				}
			})
		},
	}

	imp := &cobra.Command{
		Use:   "import FILE",
		Short: "Import settings from an INI file with [int], [double] and [text] sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening settings file: %w", err)
			}
			defer f.Close()

			n, err := a.svc.Settings().ImportINI(cmd.Context(), f)
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), n, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d settings\n", n)
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm KEY",
		Aliases: []string{"remove", "r"},
		Short:   "Remove a setting",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Settings().Delete(cmd.Context(), args[0])
		},
	}

	root.AddCommand(get, set, ls, imp, rm)

	return root
}
