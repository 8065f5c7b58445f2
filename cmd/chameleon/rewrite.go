package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

type rewriteOptions struct {
	text   string
	file   string
	tone   string
	emoji  string
	render bool
}

func newRewriteCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &rewriteOptions{}

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite text in the active vibe's voice",
		Long: `Rewrite text in the voice of the active vibe, streaming the result as it arrives.
The text comes from --text, --file, or standard input. --tone and --emoji override the active voice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Text to rewrite")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the text from a file")
	cmd.Flags().StringVar(&opts.tone, "tone", "", "Override the tone (neutral, technical, simplified, storytelling)")
	cmd.Flags().StringVar(&opts.emoji, "emoji", "", "Override the emoji frequency (none, low, high)")
	cmd.Flags().BoolVar(&opts.render, "render", false, "Render the result as Markdown once complete")
	cmd.MarkFlagsMutuallyExclusive("text", "file")

	return cmd
}

func runRewrite(cmd *cobra.Command, rootFlags *rootFlags, opts *rewriteOptions) error {
	source, err := readRewriteSource(cmd, opts)
	if err != nil {
		return err
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}
	defer app.Close()

	coord, err := app.Coordinator(cmd.Context())
	if err != nil {
		return err
	}

	voice := coord.Active().Voice
	if opts.tone != "" {
		voice.Tone = vibe.Tone(opts.tone)
		if !voice.Tone.Valid() {
			return newCommandError("rewrite", "validating --tone", fmt.Errorf("unknown tone %q", opts.tone), "Use one of neutral, technical, simplified or storytelling.")
		}
	}
	if opts.emoji != "" {
		voice.EmojiFrequency = vibe.EmojiFrequency(opts.emoji)
		if !voice.EmojiFrequency.Valid() {
			return newCommandError("rewrite", "validating --emoji", fmt.Errorf("unknown emoji frequency %q", opts.emoji), "Use one of none, low or high.")
		}
	}

	req := ports.RewriteRequest{Text: source, Tone: voice.Tone, EmojiFrequency: voice.EmojiFrequency}
	if voice.Tone == vibe.ToneNeutral || !app.ServicesConfigured() {
		return writeRewrite(cmd, opts, source)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), app.Config.API.RewriteTimeout)
	defer cancel()

	stream, err := app.Rewriter.Rewrite(ctx, req)
	if err != nil {
		app.Log.WarnErr(err, "rewrite failed, showing original text")
		return writeRewrite(cmd, opts, source)
	}

	if opts.render {
		text, err := textstream.Collect(stream)
		if err != nil || text == "" {
			app.Log.WarnErr(err, "rewrite failed, showing original text")
			text = source
		}
		return writeRewrite(cmd, opts, text)
	}

	out := cmd.OutOrStdout()
	var written int
	for chunk, err := range stream {
		if err != nil {
			if written == 0 {
				app.Log.WarnErr(err, "rewrite failed, showing original text")
				return writeRewrite(cmd, opts, source)
			}
			fmt.Fprintln(out)
			return newCommandError("rewrite", "streaming the rewritten text", err, "The output above is incomplete. Run the command again.")
		}
		n, _ := io.WriteString(out, chunk)
		written += n
	}
	if written == 0 {
		return writeRewrite(cmd, opts, source)
	}
	fmt.Fprintln(out)
	return nil
}

func readRewriteSource(cmd *cobra.Command, opts *rewriteOptions) (string, error) {
	var source string
	switch {
	case opts.text != "":
		source = opts.text
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", newCommandError("rewrite", fmt.Sprintf("reading %s", opts.file), err, "Check that the file exists and is readable.")
		}
		source = string(data)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", newCommandError("rewrite", "reading standard input", err, "Pass the text with --text or --file.")
		}
		source = string(data)
	}

	source = strings.TrimSpace(source)
	if source == "" {
		return "", newCommandError("rewrite", "reading the text", errors.New("text cannot be empty"), "Pass the text with --text, --file or standard input.")
	}
	return source, nil
}

func writeRewrite(cmd *cobra.Command, opts *rewriteOptions, text string) error {
	out := cmd.OutOrStdout()
	if !opts.render {
		_, err := fmt.Fprintln(out, text)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth(os.Stdout, 80)),
	)
	if err != nil {
		return newCommandError("rewrite", "preparing the Markdown renderer", err, "Run without --render.")
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return newCommandError("rewrite", "rendering Markdown", err, "Run without --render.")
	}
	_, err = io.WriteString(out, rendered)
	return err
}
