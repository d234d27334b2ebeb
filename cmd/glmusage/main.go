package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/glmusage/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, config.ErrNoToken) {
			fmt.Fprintln(os.Stderr, noTokenHint)
		}
		os.Exit(1)
	}
}

const noTokenHint = "No auth token configured. Run `glmusage config set-token` or set GLM_AUTH_TOKEN."

func newRootCommand() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "glmusage",
		Short:        "glmusage monitors GLM Coding Plan (Z.AI / Zhipu) quota usage from the terminal.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", config.ConfigPath(), "path to settings file (.json, .yaml)")

	root.AddCommand(
		newWatchCommand(&cfgPath),
		newServeCommand(&cfgPath),
		newStatusCommand(&cfgPath),
		newHistoryCommand(&cfgPath),
		newConfigCommand(&cfgPath),
		newVersionCommand(),
	)
	return root
}
