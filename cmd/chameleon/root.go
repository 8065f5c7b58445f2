package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	verbose    bool
	url        string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "chameleon",
		Short:         "Chameleon reshapes a page's look and voice from a described vibe",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default ~/.chameleon/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flags.url, "url", "", "Shareable URL whose vibe parameter selects the starting preset")

	cmd.AddCommand(newPresetsCmd(flags))
	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newGenerateCmd(flags))
	cmd.AddCommand(newResetCmd(flags))
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newShareCmd(flags))
	cmd.AddCommand(newRewriteCmd(flags))
	cmd.AddCommand(newExtractCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newWatchCmd(flags))
	cmd.AddCommand(newPreviewCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
