package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	cozy, _ := presets.Builtin().Get("cozy")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathVibe, r.URL.Path)
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "log cabin", body["description"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cozy)
	}))
	t.Cleanup(srv.Close)

	ctx := ports.WithRequestID(context.Background(), "req-1")
	got, err := New(srv.URL+"/").Generate(ctx, "log cabin")
	require.NoError(t, err)
	assert.Equal(t, cozy, got)
}

func TestNon2xxIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Text is required", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Rewrite(context.Background(), ports.RewriteRequest{Tone: vibe.ToneTechnical})
	var transportErr *chamerrors.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusBadRequest, transportErr.Status)
	assert.Equal(t, PathRewrite, transportErr.Endpoint)
	assert.Contains(t, err.Error(), "Text is required")
}

func TestUnreachableServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL).Generate(context.Background(), "x")
	var transportErr *chamerrors.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Zero(t, transportErr.Status)
}

func TestRewriteStreamsPlainText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ports.RewriteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, vibe.ToneSimplified, req.Tone)
		assert.Equal(t, vibe.EmojiHigh, req.EmojiFrequency)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Plants ", "eat ", "sunlight 🌞"} {
			_, _ = io.WriteString(w, part)
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)

	stream, err := New(srv.URL).Rewrite(context.Background(), ports.RewriteRequest{
		Text: "Photosynthesis", Tone: vibe.ToneSimplified, EmojiFrequency: vibe.EmojiHigh,
	})
	require.NoError(t, err)
	text, err := textstream.Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Plants eat sunlight 🌞", text)
}

func TestRewriteJSONIsSingleChunk(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"whole payload"}`)
	}))
	t.Cleanup(srv.Close)

	stream, err := New(srv.URL).Rewrite(context.Background(), ports.RewriteRequest{Text: "orig", Tone: vibe.ToneTechnical})
	require.NoError(t, err)

	var chunks []string
	for chunk, err := range stream {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"whole payload"}, chunks)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	kid, _ := presets.Builtin().Get("kid")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body extractPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, err := base64.StdEncoding.DecodeString(body.Image)
		assert.NoError(t, err)
		assert.Equal(t, "fake-png", string(raw))
		assert.Equal(t, "image/png", body.MimeType)

		_ = json.NewEncoder(w).Encode(extractAnswer{Success: true, Description: "playful", Vibe: kid})
	}))
	t.Cleanup(srv.Close)

	got, err := New(srv.URL).Extract(context.Background(), ports.ExtractRequest{Image: []byte("fake-png"), MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "playful", got.Description)
	assert.Equal(t, kid, got.Vibe)
	assert.False(t, got.Fallback)
}

func TestExtractFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(extractAnswer{
			Success:     false,
			Error:       "Failed to analyze image",
			Description: "Modern clean interface",
			Vibe:        vibe.ExtractedFallback(),
		})
	}))
	t.Cleanup(srv.Close)

	got, err := New(srv.URL).Extract(context.Background(), ports.ExtractRequest{Image: []byte("x")})
	require.True(t, errors.Is(err, ErrExtractionFailed))
	assert.True(t, got.Fallback)
	assert.Equal(t, "Extracted Theme", got.Vibe.ThemeName)
}
