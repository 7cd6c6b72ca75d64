package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgoffredo/tisch"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", appName, tisch.BuildVersion(), tisch.GoVersion())
		},
	}
}
