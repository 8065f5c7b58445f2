// Package ports declares the contracts Chameleon's core consumes from the
// generative services it talks to.
package ports

import (
	"context"

	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// Generator turns a natural-language description into a candidate vibe. The
// candidate is not trusted: callers validate it before applying it.
// Implementations must be safe to retry and free of side effects on the
// caller's state.
type Generator interface {
	Generate(ctx context.Context, description string) (vibe.Vibe, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, description string) (vibe.Vibe, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, description string) (vibe.Vibe, error) {
	return f(ctx, description)
}

// RewriteRequest is the wire shape of a rewrite call.
type RewriteRequest struct {
	Text           string              `json:"text"`
	Tone           vibe.Tone           `json:"tone"`
	EmojiFrequency vibe.EmojiFrequency `json:"emojiFrequency"`
	SourceURL      string              `json:"sourceUrl,omitempty"`
}

// Rewriter streams text rewritten for a tone. Answering with the original text
// is a valid no-op response for the neutral tone or an unconfigured service.
type Rewriter interface {
	Rewrite(ctx context.Context, req RewriteRequest) (textstream.Stream, error)
}

// RewriterFunc adapts a function to Rewriter.
type RewriterFunc func(ctx context.Context, req RewriteRequest) (textstream.Stream, error)

// Rewrite calls f.
func (f RewriterFunc) Rewrite(ctx context.Context, req RewriteRequest) (textstream.Stream, error) {
	return f(ctx, req)
}

// ExtractRequest carries a screenshot for vision extraction.
type ExtractRequest struct {
	Image    []byte
	MimeType string
}

// Extraction is the outcome of analyzing a screenshot. Fallback is set when the
// service could not analyze the image and answered with vibe.ExtractedFallback.
type Extraction struct {
	Description string    `json:"description"`
	Vibe        vibe.Vibe `json:"vibe"`
	Fallback    bool      `json:"fallback"`
	Error       string    `json:"error,omitempty"`
}

// Extractor derives a vibe from a screenshot.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (Extraction, error)
}
