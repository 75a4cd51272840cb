package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/internal/extgen"
)

func (a *app) newGenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gen [extgen.yaml]",
		Short: "Generate compile-time extension bindings",
		Long: `Gen reads extgen.yaml, scans the configured Go types for extension
methods and writes a Go file with one <Set>Descriptors function per set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GenConfigFileName
			if len(args) == 1 {
				path = args[0]
			}
			res, err := extgen.Generate(path, a.log)
			if err != nil {
				return err
			}

			st := newStyles(cmd.OutOrStdout())
			status := "unchanged"
			if res.Changed {
				status = "wrote"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d sets, %d functions\n", status, res.Path, res.Sets, res.Funcs)
			if res.Skipped > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), st.warnf("%d methods skipped (run with --debug for details)", res.Skipped))
			}
			return nil
		},
	}
}
