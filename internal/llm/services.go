package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// Stylist generates themes from descriptions.
type Stylist struct {
	Provider Provider
	Model    string
}

// Generate asks the model for a theme and validates it.
func (s Stylist) Generate(ctx context.Context, description string) (vibe.Vibe, error) {
	if s.Provider == nil || !s.Provider.Configured() {
		return vibe.Vibe{}, ErrNotConfigured
	}

	raw, err := s.Provider.GenerateJSON(ctx, Request{
		Model:  orDefault(s.Model, DefaultStylistModel),
		System: StylistPrompt,
		Prompt: ThemePrompt(description),
	})
	if err != nil {
		return vibe.Vibe{}, err
	}

	result := vibe.Decode(raw)
	if !result.OK() {
		return vibe.Vibe{}, result.Err
	}
	return result.Vibe, nil
}

// Editor rewrites prose for a tone.
type Editor struct {
	Provider Provider
	Model    string
}

// Rewrite streams the rewrite. The neutral tone and an unconfigured provider
// both answer with the original text.
func (e Editor) Rewrite(ctx context.Context, req ports.RewriteRequest) (textstream.Stream, error) {
	if req.Tone == vibe.ToneNeutral || e.Provider == nil || !e.Provider.Configured() {
		return textstream.Single(req.Text), nil
	}
	if !req.Tone.Valid() {
		return nil, chamerrors.NewValidationError("tone", fmt.Sprintf("unknown tone %q", req.Tone), nil)
	}

	return e.Provider.Stream(ctx, Request{
		Model:  orDefault(e.Model, DefaultEditorModel),
		System: EditorPrompt,
		Prompt: RewritePrompt(req),
	})
}

// Vision extracts themes from screenshots.
type Vision struct {
	Provider Provider
	Model    string
}

type visionAnswer struct {
	Description string          `json:"description"`
	Vibe        json.RawMessage `json:"vibe"`
}

// Extract reads a theme out of a screenshot. Any failure answers with the
// documented fallback theme and a non-nil error.
func (v Vision) Extract(ctx context.Context, req ports.ExtractRequest) (ports.Extraction, error) {
	extraction, err := v.extract(ctx, req)
	if err != nil {
		return FallbackExtraction(), err
	}
	return extraction, nil
}

func (v Vision) extract(ctx context.Context, req ports.ExtractRequest) (ports.Extraction, error) {
	if v.Provider == nil || !v.Provider.Configured() {
		return ports.Extraction{}, ErrNotConfigured
	}
	if len(req.Image) == 0 {
		return ports.Extraction{}, chamerrors.NewValidationError("image", "no image provided", nil)
	}

	raw, err := v.Provider.GenerateJSON(ctx, Request{
		Model:  orDefault(v.Model, DefaultVisionModel),
		Prompt: VisionPrompt,
		Images: []Image{{MimeType: req.MimeType, Data: req.Image}},
	})
	if err != nil {
		return ports.Extraction{}, err
	}

	var answer visionAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return ports.Extraction{}, chamerrors.NewParseError("vision response", 0, err)
	}
	result := vibe.Decode(answer.Vibe)
	if !result.OK() {
		return ports.Extraction{}, result.Err
	}
	return ports.Extraction{Description: answer.Description, Vibe: result.Vibe}, nil
}

// FallbackExtraction is the answer given when a screenshot cannot be read.
func FallbackExtraction() ports.Extraction {
	return ports.Extraction{
		Description: "Modern clean interface",
		Vibe:        vibe.ExtractedFallback(),
		Fallback:    true,
		Error:       "Failed to analyze image",
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

var (
	_ ports.Generator = Stylist{}
	_ ports.Rewriter  = Editor{}
	_ ports.Extractor = Vision{}
)
