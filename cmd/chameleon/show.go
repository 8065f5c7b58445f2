package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

type showOptions struct {
	jsonOutput bool
	yamlOutput bool
	cssOutput  bool
}

func newShowCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active vibe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the vibe as JSON")
	cmd.Flags().BoolVar(&opts.yamlOutput, "yaml", false, "Output the vibe as YAML")
	cmd.Flags().BoolVar(&opts.cssOutput, "css", false, "Output the vibe as CSS custom properties")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml", "css")

	return cmd
}

func runShow(cmd *cobra.Command, rootFlags *rootFlags, opts *showOptions) error {
	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	coord, err := app.Coordinator(cmd.Context())
	if err != nil {
		return err
	}
	v := coord.Active()
	out := cmd.OutOrStdout()

	switch {
	case opts.jsonOutput:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case opts.yamlOutput:
		data, err := yaml.Marshal(v)
		if err != nil {
			return newCommandError("show", "encoding YAML", err, "Try --json instead.")
		}
		_, err = out.Write(data)
		return err
	case opts.cssOutput:
		_, err := io.WriteString(out, v.Style(""))
		return err
	}

	printVibe(out, v)
	return nil
}

func printVibe(w io.Writer, v vibe.Vibe) {
	fmt.Fprintf(w, "Theme:      %s\n", v.ThemeName)
	fmt.Fprintf(w, "Colors:     primary %s  background %s  text %s  accent %s\n", v.Colors.Primary, v.Colors.Background, v.Colors.Text, v.Colors.Accent)
	fmt.Fprintf(w, "Typography: %s, %s\n", v.Typography.FontFamily, v.Typography.BaseSize)
	fmt.Fprintf(w, "Layout:     %s, radius %s\n", v.Layout.Style, valueOrFallback(v.Layout.BorderRadius, "(none)"))
	fmt.Fprintf(w, "Voice:      %s, %s emoji\n", v.Voice.Tone, v.Voice.EmojiFrequency)

	contrast := fmt.Sprintf("%.1f:1", vibe.Contrast(v))
	if !v.ReadableContrast() {
		contrast += " (below 4.5:1, may be hard to read)"
	}
	fmt.Fprintf(w, "Contrast:   %s\n", contrast)

	if mode, ok := presets.ReadingModeByID(presets.ActiveReadingMode(v)); ok {
		fmt.Fprintf(w, "Reading:    %s\n", mode.Label)
	}
}

func valueOrFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func newShareCmd(rootFlags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print the shareable URL for the active vibe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, rootFlags)
			if err != nil {
				return err
			}
			defer app.Close()

			link, err := app.Location.ShareURL()
			if err != nil {
				return newCommandError("build share URL", app.Config.Share.Location, err, "Check share.base_url in your config.")
			}

			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}

	return cmd
}
