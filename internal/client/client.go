// Package client calls a Chameleon HTTP API and exposes it through the core's
// generation, rewrite and extraction contracts.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

const maxErrorBody = 64 * 1024

// Endpoint paths served by a Chameleon API.
const (
	PathVibe         = "/api/vibe"
	PathRewrite      = "/api/rewrite"
	PathAnalyzeImage = "/api/chameleon/analyze-image"
)

// ErrExtractionFailed marks an extraction the server answered with its
// fallback theme.
var ErrExtractionFailed = errors.New("image analysis failed")

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger injects a logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client talks to one Chameleon API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// New creates a client for baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate posts a description to the theme endpoint. The returned theme is
// not validated here.
func (c *Client) Generate(ctx context.Context, description string) (vibe.Vibe, error) {
	resp, err := c.post(ctx, PathVibe, map[string]string{"description": description})
	if err != nil {
		return vibe.Vibe{}, err
	}
	defer resp.Body.Close()

	var v vibe.Vibe
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return vibe.Vibe{}, chamerrors.NewTransportError(PathVibe, resp.StatusCode, fmt.Errorf("decode theme: %w", err))
	}
	return v, nil
}

// Rewrite posts text to the rewrite endpoint and streams the body back. A JSON
// body carrying {"text": ...} is treated as a single chunk.
func (c *Client) Rewrite(ctx context.Context, req ports.RewriteRequest) (textstream.Stream, error) {
	resp, err := c.post(ctx, PathRewrite, req)
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		defer resp.Body.Close()
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, chamerrors.NewTransportError(PathRewrite, resp.StatusCode, fmt.Errorf("decode rewrite: %w", err))
		}
		if payload.Text == "" {
			payload.Text = req.Text
		}
		return textstream.Single(payload.Text), nil
	}

	return textstream.FromReader(resp.Body), nil
}

type extractPayload struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType,omitempty"`
}

type extractAnswer struct {
	Success     bool      `json:"success"`
	Description string    `json:"description"`
	Vibe        vibe.Vibe `json:"vibe"`
	Error       string    `json:"error,omitempty"`
}

// Extract uploads a screenshot. When the server falls back, the fallback
// extraction is returned together with ErrExtractionFailed.
func (c *Client) Extract(ctx context.Context, req ports.ExtractRequest) (ports.Extraction, error) {
	resp, err := c.post(ctx, PathAnalyzeImage, extractPayload{
		Image:    base64.StdEncoding.EncodeToString(req.Image),
		MimeType: req.MimeType,
	})
	if err != nil {
		return ports.Extraction{}, err
	}
	defer resp.Body.Close()

	var answer extractAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return ports.Extraction{}, chamerrors.NewTransportError(PathAnalyzeImage, resp.StatusCode, fmt.Errorf("decode analysis: %w", err))
	}

	extraction := ports.Extraction{
		Description: answer.Description,
		Vibe:        answer.Vibe,
		Fallback:    !answer.Success,
		Error:       answer.Error,
	}
	if !answer.Success {
		return extraction, fmt.Errorf("%w: %s", ErrExtractionFailed, answer.Error)
	}
	return extraction, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if id := ports.RequestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, chamerrors.NewTransportError(path, 0, err)
	}

	c.log.WithFields(map[string]any{
		"request_id": ports.RequestID(ctx),
		"path":       path,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var cause error
		if msg := strings.TrimSpace(string(detail)); msg != "" {
			cause = errors.New(msg)
		}
		return nil, chamerrors.NewTransportError(path, resp.StatusCode, cause)
	}
	return resp, nil
}

var (
	_ ports.Generator = (*Client)(nil)
	_ ports.Rewriter  = (*Client)(nil)
	_ ports.Extractor = (*Client)(nil)
)
