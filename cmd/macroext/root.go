package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/internal/logging"
	"github.com/funvibe/macroext/internal/remote"
	"github.com/funvibe/macroext/internal/stdext"
	"github.com/funvibe/macroext/pkg/ext"
)

// app is the state shared by the subcommands.
type app struct {
	configPath string
	debug      bool

	cfg *config.Config
	log *zap.SugaredLogger
}

func NewRootCommand(version string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "macroext",
		Short: "Run macros with native extension functions",
		Long: `macroext runs ImageJ-style macros whose Ext.name(...) calls dispatch to
native extension functions.

Extension sets come from the built-in Math, Strings and SQL sets and from
gRPC services declared in macroext.yaml.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to macroext.yaml (default: search upward from the working directory)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(a.newRunCommand(), a.newListCommand(), a.newGenCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return err
		}
		path = found
	}

	a.cfg = &config.Config{}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	log, err := logging.Build(a.debug || a.cfg.Log.Debug, "stderr")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log
	if path != "" {
		a.log.Debugw("loaded config", "path", path)
	}
	return nil
}

// registry builds the registry of built-in and remote extension sets. The
// returned cleanup closes their resources.
func (a *app) registry() (*ext.Registry, func(), error) {
	reg := ext.NewRegistry()
	sets, err := stdext.Register(reg, a.log)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{sets.Close}
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				a.log.Warnw("cleanup failed", "error", err)
			}
		}
	}

	for _, rc := range a.cfg.Remote {
		rs, err := remote.Open(rc, a.log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, rs.Close)
		if err := rs.Register(reg); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return reg, cleanup, nil
}
