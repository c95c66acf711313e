package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	var force bool

	root := &cobra.Command{
		Use:         "config",
		Aliases:     []string{"conf"},
		Short:       "Configuration management",
		Annotations: skipDBAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	show := &cobra.Command{
		Use:         "show",
		Short:       "Print the active configuration",
		Annotations: skipDBAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.output(cmd.OutOrStdout(), a.cfg, func(w io.Writer) {
				fmt.Fprintf(w, "dir:      %s\ndriver:   %s\n", a.cfg.Dir, a.cfg.Driver)
				for _, name := range []string{
					a.cfg.BookmarksDB, a.cfg.HistoryDB, a.cfg.HistoryTestDB,
					a.cfg.SettingsDB, a.cfg.SettingsTestDB, a.cfg.SessionDB,
				} {
					fmt.Fprintf(w, "database: %s\n", a.cfg.Path(name))
				}
			})
		},
	}

	dump := &cobra.Command{
		Use:         "dump [FILE]",
		Short:       "Write the configuration to a YAML file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: skipDBAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.cfgFile
			if len(args) == 1 {
				p = args[0]
			}

			if p == "" {
				var err error
				if p, err = config.ConfigPath(); err != nil {
					return err
				}
			}

			if err := a.cfg.Dump(p, force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "configfile path: '%s'\n", p)

			return nil
		},
	}
	dump.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	root.AddCommand(show, dump)

	return root
}

func (a *app) backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "backup [DIR]",
		Aliases: []string{"bk"},
		Short:   "Copy every database into DIR (default is <dir>/backup)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Join(a.cfg.Dir, "backup")
			if len(args) == 1 {
				dir = args[0]
			}

			paths, err := a.svc.Backup(cmd.Context(), dir)
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), paths, func(w io.Writer) {
				for _, p := range paths {
					fmt.Fprintln(w, p)
				}
			})
		},
	}
}
