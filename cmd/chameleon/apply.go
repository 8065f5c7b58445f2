package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/presets"
)

func newApplyCmd(rootFlags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <preset>",
		Short: "Switch to a built-in vibe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, rootFlags)
			if err != nil {
				return err
			}
			defer app.Close()

			coord, err := app.Coordinator(cmd.Context())
			if err != nil {
				return err
			}

			key := args[0]
			if !coord.ApplyPreset(key) {
				return newCommandError("apply preset", fmt.Sprintf("looking up %q", key), presets.ErrUnknownPreset, "Run 'chameleon presets' to view the available keys.")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s (%s)\n", coord.Active().ThemeName, key)
			return nil
		},
	}

	return cmd
}

func newResetCmd(rootFlags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Return to the default vibe and forget the saved one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, rootFlags)
			if err != nil {
				return err
			}
			defer app.Close()

			coord, err := app.Coordinator(cmd.Context())
			if err != nil {
				return err
			}

			coord.ResetToDefault()
			fmt.Fprintf(cmd.OutOrStdout(), "Reset to %s\n", coord.Active().ThemeName)
			return nil
		},
	}

	return cmd
}
