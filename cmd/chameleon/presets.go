package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

type presetsOptions struct {
	jsonOutput bool
}

type presetJSON struct {
	Key    string    `json:"key"`
	Label  string    `json:"label"`
	Active bool      `json:"active"`
	Vibe   vibe.Vibe `json:"vibe"`
}

func newPresetsCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &presetsOptions{}

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in vibes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresets(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output presets as JSON")

	return cmd
}

func runPresets(cmd *cobra.Command, rootFlags *rootFlags, opts *presetsOptions) error {
	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	coord, err := app.Coordinator(cmd.Context())
	if err != nil {
		return err
	}
	reg := coord.Registry()
	activeKey, _ := reg.KeyFor(coord.Active())

	if opts.jsonOutput {
		entries := reg.Entries()
		out := make([]presetJSON, 0, len(entries))
		for _, entry := range entries {
			out = append(out, presetJSON{Key: entry.Key, Label: entry.Label, Active: entry.Key == activeKey, Vibe: entry.Vibe})
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tKEY\tNAME\tDESCRIPTION")
	for _, entry := range reg.Entries() {
		marker := " "
		if entry.Key == activeKey {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, entry.Key, entry.Vibe.ThemeName, entry.Label)
	}
	return w.Flush()
}
