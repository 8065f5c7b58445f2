package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/client"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/presets"
	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func decodeVibe(t *testing.T, resp *http.Response) vibe.Vibe {
	t.Helper()
	var v vibe.Vibe
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestVibeRequiresDescription(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})
	for _, body := range []any{map[string]any{}, map[string]any{"description": 42}, map[string]any{"description": "  "}} {
		resp := postJSON(t, srv.URL+"/api/vibe", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Description is required"}`, readBody(t, resp))
	}
}

func TestVibeGenerates(t *testing.T) {
	t.Parallel()

	cyber, _ := presets.Builtin().Get("cyberpunk")
	gen := ports.GeneratorFunc(func(_ context.Context, description string) (vibe.Vibe, error) {
		assert.Equal(t, "hacker movie", description)
		return cyber, nil
	})
	srv := newTestServer(t, Options{Generator: gen})

	resp := postJSON(t, srv.URL+"/api/vibe", map[string]string{"description": "hacker movie"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, cyber, decodeVibe(t, resp))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestVibeFallsBackToDefault(t *testing.T) {
	t.Parallel()

	invalid := presets.Builtin().Default()
	invalid.Colors.Primary = "green"

	cases := map[string]ports.Generator{
		"no generator": nil,
		"error": ports.GeneratorFunc(func(context.Context, string) (vibe.Vibe, error) {
			return vibe.Vibe{}, errors.New("model overloaded")
		}),
		"invalid output": ports.GeneratorFunc(func(context.Context, string) (vibe.Vibe, error) {
			return invalid, nil
		}),
	}

	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, Options{Generator: gen})
			resp := postJSON(t, srv.URL+"/api/vibe", map[string]string{"description": "anything"})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, presets.Builtin().Default(), decodeVibe(t, resp))
		})
	}
}

func TestUsageEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})
	for _, path := range []string{"/api/vibe", "/api/rewrite"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body := readBody(t, resp)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "POST to this endpoint")
	}
}

func TestRewriteValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})

	resp := postJSON(t, srv.URL+"/api/rewrite", map[string]string{"tone": "technical"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Text is required", strings.TrimSpace(readBody(t, resp)))

	resp = postJSON(t, srv.URL+"/api/rewrite", map[string]string{"text": "x", "tone": "pirate"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRewriteNeutralEchoesWithoutCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	rw := ports.RewriterFunc(func(context.Context, ports.RewriteRequest) (textstream.Stream, error) {
		calls.Add(1)
		return textstream.Single("nope"), nil
	})
	srv := newTestServer(t, Options{Rewriter: rw})

	resp := postJSON(t, srv.URL+"/api/rewrite", ports.RewriteRequest{Text: "The cell.", Tone: vibe.ToneNeutral})
	assert.Equal(t, "The cell.", readBody(t, resp))
	assert.Zero(t, calls.Load())
}

func TestRewriteStreamsThroughClient(t *testing.T) {
	t.Parallel()

	rw := ports.RewriterFunc(func(_ context.Context, req ports.RewriteRequest) (textstream.Stream, error) {
		assert.Equal(t, "https://src.test", req.SourceURL)
		return textstream.Chunks("Mighty ", "mitochondria ", "⚡"), nil
	})
	srv := newTestServer(t, Options{Rewriter: rw})

	stream, err := client.New(srv.URL).Rewrite(context.Background(), ports.RewriteRequest{
		Text: "The mitochondria is the powerhouse of the cell.", Tone: vibe.ToneStorytelling, SourceURL: "https://src.test",
	})
	require.NoError(t, err)
	text, err := textstream.Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Mighty mitochondria ⚡", text)
}

func TestRewriteFailureBeforeFirstByteAnswersOriginal(t *testing.T) {
	t.Parallel()

	cases := map[string]ports.Rewriter{
		"request error": ports.RewriterFunc(func(context.Context, ports.RewriteRequest) (textstream.Stream, error) {
			return nil, errors.New("unavailable")
		}),
		"stream error": ports.RewriterFunc(func(context.Context, ports.RewriteRequest) (textstream.Stream, error) {
			return textstream.Failure(errors.New("quota")), nil
		}),
		"empty stream": ports.RewriterFunc(func(context.Context, ports.RewriteRequest) (textstream.Stream, error) {
			return textstream.Chunks(), nil
		}),
	}

	for name, rw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, Options{Rewriter: rw})
			resp := postJSON(t, srv.URL+"/api/rewrite", ports.RewriteRequest{Text: "original", Tone: vibe.ToneTechnical})
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "original", readBody(t, resp))
		})
	}
}

func TestRewriteMidStreamFailureBreaksStream(t *testing.T) {
	t.Parallel()

	rw := ports.RewriterFunc(func(context.Context, ports.RewriteRequest) (textstream.Stream, error) {
		return textstream.Then(textstream.Chunks("partial "), textstream.Failure(errors.New("model crashed"))), nil
	})
	srv := newTestServer(t, Options{Rewriter: rw})

	stream, err := client.New(srv.URL).Rewrite(context.Background(), ports.RewriteRequest{Text: "original", Tone: vibe.ToneTechnical})
	require.NoError(t, err)
	_, err = textstream.Collect(stream)
	require.Error(t, err, "client must observe a broken stream")
}

func TestAnalyzeImage(t *testing.T) {
	t.Parallel()

	kid, _ := presets.Builtin().Get("kid")
	ex := extractorFunc(func(_ context.Context, req ports.ExtractRequest) (ports.Extraction, error) {
		assert.Equal(t, "png-bytes", string(req.Image))
		assert.Equal(t, "image/png", req.MimeType)
		return ports.Extraction{Description: "Bright and bubbly", Vibe: kid}, nil
	})
	srv := newTestServer(t, Options{Extractor: ex})

	resp := postJSON(t, srv.URL+"/api/chameleon/analyze-image", map[string]string{
		"image": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var answer analyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
	assert.True(t, answer.Success)
	assert.Equal(t, "Bright and bubbly", answer.Description)
	assert.Equal(t, kid, answer.Vibe)
}

func TestAnalyzeImageFallback(t *testing.T) {
	t.Parallel()

	failing := extractorFunc(func(context.Context, ports.ExtractRequest) (ports.Extraction, error) {
		return ports.Extraction{}, errors.New("vision offline")
	})

	cases := []struct {
		name      string
		extractor ports.Extractor
		image     string
	}{
		{"extractor error", failing, base64.StdEncoding.EncodeToString([]byte("img"))},
		{"no extractor", nil, base64.StdEncoding.EncodeToString([]byte("img"))},
		{"bad base64", failing, "%%%"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, Options{Extractor: tc.extractor})
			resp := postJSON(t, srv.URL+"/api/chameleon/analyze-image", map[string]string{"image": tc.image})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var answer analyzeResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
			assert.False(t, answer.Success)
			assert.Equal(t, "Failed to analyze image", answer.Error)
			assert.Equal(t, "Modern clean interface", answer.Description)
			assert.Equal(t, vibe.ExtractedFallback(), answer.Vibe)
		})
	}

	srv := newTestServer(t, Options{})
	resp := postJSON(t, srv.URL+"/api/chameleon/analyze-image", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"No image provided"}`, readBody(t, resp))
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
	_ = resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", resp.Header.Get("X-Request-ID"))
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body := readBody(t, resp)
	_ = resp.Body.Close()
	assert.Contains(t, body, `chameleon_http_requests_total{endpoint="GET /healthz",method="GET",status="200"} 2`)
}

type extractorFunc func(context.Context, ports.ExtractRequest) (ports.Extraction, error)

func (f extractorFunc) Extract(ctx context.Context, req ports.ExtractRequest) (ports.Extraction, error) {
	return f(ctx, req)
}
