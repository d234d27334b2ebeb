package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/glmusage/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "glmusage "+version.String())
		},
	}
}
