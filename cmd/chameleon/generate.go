package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
)

func newGenerateCmd(rootFlags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <description...>",
		Short: "Generate a vibe from a description",
		Example: `  chameleon generate dark hacker terminal
  chameleon generate "explain it like I'm five"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, rootFlags, strings.Join(args, " "))
		},
	}

	return cmd
}

func runGenerate(cmd *cobra.Command, rootFlags *rootFlags, description string) error {
	if strings.TrimSpace(description) == "" {
		return newCommandError("generate theme", "validating description", errors.New("description cannot be empty"), "Describe the look you want, e.g. 'cozy cabin storytelling'.")
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.ServicesConfigured() {
		return newCommandError("generate theme", fmt.Sprintf("%q", description), errors.New("no theme generation service configured"), "Set GEMINI_API_KEY, or point api.base_url at a running 'chameleon serve'.")
	}

	coord, err := app.Coordinator(cmd.Context())
	if err != nil {
		return err
	}

	outcome := coord.ChangeTheme(cmd.Context(), description)
	switch outcome.Status {
	case coordinator.StatusApplied:
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n\n", outcome.Vibe.ThemeName)
		printVibe(cmd.OutOrStdout(), outcome.Vibe)
		return nil
	case coordinator.StatusFailed:
		return newCommandError("generate theme", fmt.Sprintf("%q", description), outcome.Err, "The previous vibe is still active. Try again or rephrase the description.")
	default:
		return newCommandError("generate theme", fmt.Sprintf("%q", description), fmt.Errorf("request %s", outcome.Status), "Try again.")
	}
}
