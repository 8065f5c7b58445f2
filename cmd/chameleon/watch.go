package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/client"
	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
)

type watchOptions struct {
	server     string
	jsonOutput bool
}

func newWatchCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the shared vibe of a 'chameleon serve --hub' instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "Hub base URL (default from api.base_url)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print each snapshot as a JSON line")

	return cmd
}

func runWatch(cmd *cobra.Command, rootFlags *rootFlags, opts *watchOptions) error {
	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	base := opts.server
	if base == "" {
		base = app.Config.API.BaseURL
	}
	if base == "" {
		return newCommandError("watch", "resolving the hub address", errors.New("no server configured"), "Pass --server or set api.base_url.")
	}

	out := cmd.OutOrStdout()
	encoder := json.NewEncoder(out)
	printSnapshot := func(s coordinator.Snapshot) {
		if opts.jsonOutput {
			_ = encoder.Encode(s)
			return
		}
		line := fmt.Sprintf("#%d %-10s %s", s.Version, s.Cause, s.Vibe.ThemeName)
		switch {
		case s.Loading:
			line += " (generating…)"
		case s.Error != "":
			line += " (error: " + s.Error + ")"
		}
		fmt.Fprintln(out, line)
	}

	c := client.New(base, client.WithLogger(app.Log))
	if err := c.Watch(cmd.Context(), printSnapshot); err != nil {
		return newCommandError("watch", base, err, "Check that the server runs with --hub.")
	}
	return nil
}
