package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/internal/interp"
)

func (a *app) newRunCommand() *cobra.Command {
	var (
		eval   string
		enable []string
	)
	cmd := &cobra.Command{
		Use:   "run [flags] <macro-file>",
		Short: "Run a macro",
		Long: `Run executes a macro file, or the code given with --eval.

Extension sets listed under extensions.enable in macroext.yaml, and those
given with --enable, are installed before the macro starts.

Example:
  macroext run measure.ijm
  macroext run --enable Math -e 'print(Ext.Sqrt(2))'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, src, err := macroSource(args, eval)
			if err != nil {
				return err
			}
			if name != "-e" && !slices.Contains(config.MacroFileExtensions, filepath.Ext(name)) {
				a.log.Warnw("unrecognized macro file extension", "file", name)
			}

			reg, cleanup, err := a.registry()
			if err != nil {
				return err
			}
			defer cleanup()

			st := newStyles(cmd.ErrOrStderr())
			in := interp.New(reg,
				interp.WithOutput(cmd.OutOrStdout()),
				interp.WithLogger(a.log),
				interp.WithDiagnostics(func(err error) {
					fmt.Fprintln(cmd.ErrOrStderr(), st.warnf("warning: %v", err))
				}))

			for _, set := range append(slices.Clone(a.cfg.Extensions.Enable), enable...) {
				if err := in.Install(set); err != nil {
					return err
				}
			}
			if err := in.Run(src); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&eval, "eval", "e", "", "macro code to run instead of a file")
	cmd.Flags().StringSliceVar(&enable, "enable", nil, "extension sets to install before running")
	return cmd
}

func macroSource(args []string, eval string) (name, src string, err error) {
	switch {
	case eval != "" && len(args) > 0:
		return "", "", errors.New("give either a macro file or --eval, not both")
	case eval != "":
		return "-e", eval, nil
	case len(args) == 0:
		return "", "", errors.New("no macro file given")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading macro: %w", err)
	}
	return args[0], string(data), nil
}
