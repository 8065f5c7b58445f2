package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

func candidateJSON(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
		}},
	})
	return string(payload)
}

func TestGeminiGenerateJSON(t *testing.T) {
	t.Parallel()

	var captured geminiGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))
		_, _ = io.WriteString(w, candidateJSON("```json\n{\"ok\":true}\n```"))
	}))
	t.Cleanup(srv.Close)

	g := NewGemini(GeminiConfig{APIKey: "secret", Endpoint: srv.URL + "/", Temperature: 0.4})
	out, err := g.GenerateJSON(context.Background(), Request{
		Model:  "test-model",
		System: "be terse",
		Prompt: "hello",
		Images: []Image{{Data: []byte{0x89, 0x50}}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))

	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	assert.InDelta(t, 0.4, captured.GenerationConfig.Temperature, 1e-9)
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "be terse", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents[0].Parts, 2)
	assert.Equal(t, "image/png", captured.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "iVA=", captured.Contents[0].Parts[1].InlineData.Data)
}

func TestGeminiErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	g := NewGemini(GeminiConfig{APIKey: "k", Endpoint: srv.URL})
	_, err := g.GenerateJSON(context.Background(), Request{Model: "m", Prompt: "p"})

	var transportErr *chamerrors.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusTooManyRequests, transportErr.Status)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGeminiNotConfigured(t *testing.T) {
	t.Parallel()

	g := NewGemini(GeminiConfig{})
	assert.False(t, g.Configured())
	_, err := g.Stream(context.Background(), Request{Model: "m"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeminiStreamParsesSSE(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "/models/m:streamGenerateContent", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Once ", "upon ", "a time"} {
			fmt.Fprintf(w, "data: %s\r\n\r\n", candidateJSON(part))
			flusher.Flush()
		}
		fmt.Fprint(w, ": keep-alive\n\n")
	}))
	t.Cleanup(srv.Close)

	g := NewGemini(GeminiConfig{APIKey: "k", Endpoint: srv.URL})
	stream, err := g.Stream(context.Background(), Request{Model: "m", Prompt: "tell"})
	require.NoError(t, err)

	var chunks []string
	for chunk, err := range stream {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"Once ", "upon ", "a time"}, chunks)

	text, err := textstream.Collect(textstream.Chunks(chunks...))
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time", text)
}

func TestParseSSELine(t *testing.T) {
	t.Parallel()

	text, ok := parseSSELine([]byte("data: " + candidateJSON("hi") + "\n"))
	assert.True(t, ok)
	assert.Equal(t, "hi", text)

	for _, line := range []string{"", "event: ping", "data: [DONE]", "data: {broken"} {
		_, ok := parseSSELine([]byte(line))
		assert.False(t, ok, line)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1} "))
}
