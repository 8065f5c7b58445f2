package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

type fakeProvider struct {
	configured bool
	json       []byte
	jsonErr    error
	stream     textstream.Stream
	requests   []Request
}

func (f *fakeProvider) GenerateJSON(_ context.Context, req Request) ([]byte, error) {
	f.requests = append(f.requests, req)
	return f.json, f.jsonErr
}

func (f *fakeProvider) Stream(_ context.Context, req Request) (textstream.Stream, error) {
	f.requests = append(f.requests, req)
	return f.stream, nil
}

func (f *fakeProvider) Configured() bool {
	return f.configured
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestStylistGenerate(t *testing.T) {
	t.Parallel()

	cyber, _ := presets.Builtin().Get("cyberpunk")
	provider := &fakeProvider{configured: true, json: mustJSON(t, cyber)}

	got, err := Stylist{Provider: provider}.Generate(context.Background(), "hacker movie")
	require.NoError(t, err)
	assert.Equal(t, cyber, got)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, DefaultStylistModel, provider.requests[0].Model)
	assert.Equal(t, StylistPrompt, provider.requests[0].System)
	assert.Contains(t, provider.requests[0].Prompt, `"hacker movie"`)
}

func TestStylistRejectsInvalidTheme(t *testing.T) {
	t.Parallel()

	bad := presets.Builtin().Default()
	bad.Voice.Tone = "sarcastic"
	provider := &fakeProvider{configured: true, json: mustJSON(t, bad)}

	_, err := Stylist{Provider: provider}.Generate(context.Background(), "x")
	var valErr *chamerrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "voice.tone", valErr.Field)
}

func TestStylistUnconfigured(t *testing.T) {
	t.Parallel()

	_, err := Stylist{Provider: &fakeProvider{}}.Generate(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestEditorNeutralAndUnconfiguredPassThrough(t *testing.T) {
	t.Parallel()

	configured := &fakeProvider{configured: true, stream: textstream.Single("rewritten")}
	req := ports.RewriteRequest{Text: "original", Tone: vibe.ToneNeutral}

	stream, err := Editor{Provider: configured}.Rewrite(context.Background(), req)
	require.NoError(t, err)
	text, err := textstream.Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "original", text)
	assert.Empty(t, configured.requests)

	req.Tone = vibe.ToneTechnical
	stream, err = Editor{Provider: &fakeProvider{}}.Rewrite(context.Background(), req)
	require.NoError(t, err)
	text, _ = textstream.Collect(stream)
	assert.Equal(t, "original", text)
}

func TestEditorStreams(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{configured: true, stream: textstream.Chunks("a", "b")}
	req := ports.RewriteRequest{Text: "t", Tone: vibe.ToneStorytelling, EmojiFrequency: vibe.EmojiHigh, SourceURL: "https://x.test"}

	stream, err := Editor{Provider: provider, Model: "custom"}.Rewrite(context.Background(), req)
	require.NoError(t, err)
	text, err := textstream.Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "custom", provider.requests[0].Model)
	assert.Contains(t, provider.requests[0].Prompt, "Target tone: storytelling")
	assert.Contains(t, provider.requests[0].Prompt, "Emoji frequency: high")
	assert.Contains(t, provider.requests[0].Prompt, "Source URL for reference: https://x.test")

	_, err = Editor{Provider: provider}.Rewrite(context.Background(), ports.RewriteRequest{Text: "t", Tone: "pirate"})
	require.Error(t, err)
}

func TestVisionExtract(t *testing.T) {
	t.Parallel()

	kid, _ := presets.Builtin().Get("kid")
	provider := &fakeProvider{configured: true, json: mustJSON(t, map[string]any{
		"description": "Bright playful landing page",
		"vibe":        kid,
	})}

	got, err := Vision{Provider: provider}.Extract(context.Background(), ports.ExtractRequest{Image: []byte("png"), MimeType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "Bright playful landing page", got.Description)
	assert.Equal(t, kid, got.Vibe)
	assert.False(t, got.Fallback)
	assert.Equal(t, "image/jpeg", provider.requests[0].Images[0].MimeType)
}

func TestVisionFallsBack(t *testing.T) {
	t.Parallel()

	cases := map[string]*fakeProvider{
		"unconfigured":   {},
		"provider error": {configured: true, jsonErr: errors.New("boom")},
		"bad json":       {configured: true, json: []byte("nope")},
		"invalid vibe":   {configured: true, json: []byte(`{"description":"x","vibe":{"themeName":"x"}}`)},
	}

	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Vision{Provider: provider}.Extract(context.Background(), ports.ExtractRequest{Image: []byte("png")})
			require.Error(t, err)
			assert.True(t, got.Fallback)
			assert.Equal(t, "Modern clean interface", got.Description)
			assert.Equal(t, "Extracted Theme", got.Vibe.ThemeName)
			assert.Equal(t, "Failed to analyze image", got.Error)
		})
	}
}
