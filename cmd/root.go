// Package cmd is the command line front end over the storage service.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/webstore/internal/config"
	"github.com/mateconpizza/webstore/internal/service"
)

// skipDBAnnotation marks commands that run without opening the databases.
var skipDBAnnotation = map[string]string{"skip-db": "true"}

type app struct {
	cfgFile  string
	verbose  int
	testMode bool
	jsonOut  bool

	cfg *config.Config
	svc *service.Service
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               config.Name(),
		Short:             "Browser bookmark, history and session storage",
		Version:           config.Version(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default is the user config dir)")
	f.CountVarP(&a.verbose, "verbose", "v", "verbose mode (repeat for more)")
	f.BoolVar(&a.testMode, "test", false, "use the test history and settings databases")
	f.BoolVarP(&a.jsonOut, "json", "j", false, "output in JSON format")

	root.AddCommand(
		a.bookmarkCmd(),
		a.dirCmd(),
		a.tagCmd(),
		a.historyCmd(),
		a.settingsCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.sessionCmd(),
		a.configCmd(),
		a.backupCmd(),
	)
	root.CompletionOptions.HiddenDefaultCmd = true

	return root
}

// setup loads the config and, unless the command opts out, opens the
// storage service.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.SetVerbosity(a.verbose)

	p := a.cfgFile
	if p == "" {
		var err error
		if p, err = config.ConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(p)
	if err != nil {
		return err
	}

	a.cfg = cfg
	if cmd.Annotations["skip-db"] == "true" {
		return nil
	}

	a.svc = service.New(cfg)

	return a.svc.Init(cmd.Context(), a.testMode)
}

func (a *app) close() {
	if a.svc != nil {
		a.svc.Close()
	}
}

// output writes v as JSON when requested, otherwise calls text.
func (a *app) output(w io.Writer, v any, text func(w io.Writer)) error {
	if !a.jsonOut {
		text(w)
		return nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

func run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)

	return root.ExecuteContext(ctx)
}

// Execute runs the command line with the process arguments.
func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", config.Name(), err)
		os.Exit(1)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}

	return id, nil
}
