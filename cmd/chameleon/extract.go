package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/llm"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
)

type extractOptions struct {
	apply bool
}

func newExtractCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Derive a vibe from a screenshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, rootFlags, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply the extracted vibe")

	return cmd
}

func runExtract(cmd *cobra.Command, rootFlags *rootFlags, path string, opts *extractOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newCommandError("extract vibe", fmt.Sprintf("reading %s", path), err, "Check that the image exists and is readable.")
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	extraction, err := app.Extractor.Extract(cmd.Context(), ports.ExtractRequest{
		Image:    data,
		MimeType: http.DetectContentType(data),
	})
	if err != nil {
		app.Log.WarnErr(err, "screenshot analysis failed, using the fallback vibe")
		if !extraction.Fallback {
			extraction = llm.FallbackExtraction()
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Description: %s\n", extraction.Description)
	if extraction.Fallback {
		fmt.Fprintf(out, "Note:        %s, showing the fallback vibe\n", valueOrFallback(extraction.Error, "analysis unavailable"))
	}
	fmt.Fprintln(out)
	printVibe(out, extraction.Vibe)

	if !opts.apply {
		return nil
	}

	coord, err := app.Coordinator(cmd.Context())
	if err != nil {
		return err
	}
	outcome := coord.ApplyExtraction(cmd.Context(), extraction)
	if outcome.Status != coordinator.StatusApplied {
		return newCommandError("apply extracted vibe", path, outcome.Err, "The previous vibe is still active.")
	}
	fmt.Fprintf(out, "\nApplied %s\n", outcome.Vibe.ThemeName)
	return nil
}
