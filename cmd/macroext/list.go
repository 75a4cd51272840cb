package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [set...]",
		Short: "List extension sets and their functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := a.registry()
			if err != nil {
				return err
			}
			defer cleanup()

			names := args
			if len(names) == 0 {
				names = reg.Sets()
			}
			st := newStyles(cmd.OutOrStdout())
			out := cmd.OutOrStdout()
			for i, name := range names {
				descs, ok := reg.Set(name)
				if !ok {
					return fmt.Errorf("unknown extension set %q", name)
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, st.render(st.set, name)+st.render(st.dim, fmt.Sprintf(" (%d)", len(descs))))
				for _, d := range descs {
					fmt.Fprintf(out, "  Ext.%s\n", d.Signature())
				}
			}
			if len(names) == 0 {
				fmt.Fprintln(out, st.render(st.dim, "no extension sets registered"))
			}
			return nil
		},
	}
}
