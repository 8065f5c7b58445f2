package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/metrics"
	"github.com/alexisbeaulieu97/chameleon/internal/server"
)

type serveOptions struct {
	addr string
	hub  bool
}

func newServeCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the vibe, rewrite and screenshot APIs over HTTP",
		Long: `Serve POST /api/vibe, POST /api/rewrite and POST /api/chameleon/analyze-image.
With --hub the server also owns a shared active vibe at /api/theme and pushes
every change to websocket watchers at /api/theme/watch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default from server.addr)")
	cmd.Flags().BoolVar(&opts.hub, "hub", false, "Host the shared theme hub")

	return cmd
}

func runServe(cmd *cobra.Command, rootFlags *rootFlags, opts *serveOptions) error {
	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := opts.addr
	if addr == "" {
		addr = app.Config.Server.Addr
	}
	if !app.ServicesConfigured() {
		app.Log.Warn("no model configured; generation answers with the default vibe and rewrites echo their input")
	}

	collector := metrics.New()
	srvOpts := server.Options{
		Generator: app.Generator,
		Rewriter:  app.Rewriter,
		Extractor: app.Extractor,
		Metrics:   collector,
		Logger:    app.Log,
	}

	if opts.hub || app.Config.Server.Hub {
		coord, err := app.Coordinator(cmd.Context(), coordinator.WithMetrics(collector))
		if err != nil {
			return err
		}
		srvOpts.Registry = coord.Registry()
		srvOpts.Hub = server.NewHub(coord, app.Log, collector)
	}

	if err := server.New(srvOpts).Run(cmd.Context(), addr); err != nil {
		return newCommandError("serve", "listening on "+addr, err, "Choose a free address with --addr.")
	}
	return nil
}
