package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "check [ID...]",
		Short: "Compile units and report pattern errors",
		Long: "Compile the named units, or every unit in the patterns directory,\n" +
			"and report the ones that fail to load or compile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, src, err := g.engine(cmd)
			if err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				if ids, err = src.List(); err != nil {
					return &exitError{code: exitUsage, err: err}
				}
			}

			w := cmd.OutOrStdout()
			var errs error
			for _, id := range ids {
				v, err := e.Validator(id)
				if err != nil {
					fmt.Fprintf(w, "%s: FAIL\n", id)
					errs = multierr.Append(errs, err)
					continue
				}
				if show {
					fmt.Fprintf(w, "%s: OK %s\n", id, v)
				} else {
					fmt.Fprintf(w, "%s: OK\n", id)
				}
			}

			if errs != nil {
				for _, err := range multierr.Errors(errs) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
				return &exitError{code: exitUsage}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print each compiled pattern")
	return cmd
}
