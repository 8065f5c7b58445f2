package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/morph"
	"github.com/alexisbeaulieu97/chameleon/internal/tui/preview"
)

const sampleText = `Chameleon adapts this page to the reader. Describe a vibe and the colors,
typography and layout follow; the voice of the text changes with it, so the same
guide can read like a terse reference for experts or a friendly story for beginners.`

type previewOptions struct {
	text   string
	file   string
	manual bool
}

func newPreviewCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Open the interactive preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Text shown in the preview pane")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the preview text from a file")
	cmd.Flags().BoolVar(&opts.manual, "manual", false, "Start with automatic rewrites off")
	cmd.MarkFlagsMutuallyExclusive("text", "file")

	return cmd
}

func runPreview(cmd *cobra.Command, rootFlags *rootFlags, opts *previewOptions) error {
	source := sampleText
	if opts.text != "" || opts.file != "" {
		var err error
		source, err = readRewriteSource(cmd, &rewriteOptions{text: opts.text, file: opts.file})
		if err != nil {
			return err
		}
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	// Log lines would tear the alternate screen.
	if !rootFlags.verbose {
		app.Log = logger.Nop()
		app.Generator, app.Rewriter, app.Extractor = buildServices(app.Config, app.Log)
	}

	ctx := cmd.Context()
	coord, err := app.Coordinator(ctx)
	if err != nil {
		return err
	}

	text := morph.New(app.Rewriter, source,
		morph.WithAuto(!opts.manual),
		morph.WithSourceURL(app.Config.Share.BaseURL),
		morph.WithTimeout(app.Config.API.RewriteTimeout),
		morph.WithLogger(app.Log),
	)
	stop := text.Follow(ctx, coord)
	defer stop()

	model := preview.NewModel(ctx, preview.Config{
		Coordinator: coord,
		Text:        text,
		Unicode:     isTerminal(os.Stdout),
	})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return newCommandError("run preview", "starting the terminal UI", err, "Run the preview from an interactive terminal.")
	}
	return nil
}
