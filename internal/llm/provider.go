// Package llm talks to the generative model behind Chameleon's HTTP API and
// adapts it to the core's generation, rewrite and extraction contracts.
package llm

import (
	"context"
	"errors"
	"io"

	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
)

const (
	// MaxErrorBodySize limits how much of an error response is read (1MB).
	MaxErrorBodySize = 1 * 1024 * 1024

	// DefaultEndpoint is the public Gemini API.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultStylistModel turns descriptions into themes.
	DefaultStylistModel = "gemini-2.5-flash"
	// DefaultEditorModel rewrites prose.
	DefaultEditorModel = "gemini-2.5-pro"
	// DefaultVisionModel reads screenshots.
	DefaultVisionModel = "gemini-2.5-flash"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("llm provider not configured")

// Image is an inline image part.
type Image struct {
	MimeType string
	Data     []byte
}

// Request is one model invocation.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Images      []Image
	Temperature float64
}

// Provider is a generative model backend.
type Provider interface {
	// GenerateJSON asks for a JSON document and returns it raw.
	GenerateJSON(ctx context.Context, req Request) ([]byte, error)
	// Stream returns the model's text as it is produced.
	Stream(ctx context.Context, req Request) (textstream.Stream, error)
	// Configured reports whether calls can be made at all.
	Configured() bool
}

// readLimitedBody reads up to maxBytes from r.
func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}
