package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/textstream"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Endpoint    string
	Temperature float64
	HTTPClient  *http.Client
	Logger      *logger.Logger
}

// Gemini implements Provider for Google Gemini.
type Gemini struct {
	apiKey      string
	endpoint    string
	temperature float64
	client      *http.Client
	log         *logger.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(cfg GeminiConfig) *Gemini {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Gemini{
		apiKey:      cfg.APIKey,
		endpoint:    endpoint,
		temperature: cfg.Temperature,
		client:      client,
		log:         log.With("provider", "gemini"),
	}
}

// Configured reports whether an API key is set.
func (g *Gemini) Configured() bool {
	return g.apiKey != ""
}

// GenerateJSON calls generateContent with a JSON response type.
func (g *Gemini) GenerateJSON(ctx context.Context, req Request) ([]byte, error) {
	body := g.buildRequest(req)
	body.GenerationConfig.ResponseMimeType = "application/json"

	resp, err := g.post(ctx, req.Model, "generateContent", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	text, err := decoded.text()
	if err != nil {
		return nil, err
	}
	return []byte(stripFences(text)), nil
}

// Stream calls streamGenerateContent and yields text parts as they arrive.
func (g *Gemini) Stream(ctx context.Context, req Request) (textstream.Stream, error) {
	resp, err := g.post(ctx, req.Model, "streamGenerateContent?alt=sse", g.buildRequest(req))
	if err != nil {
		return nil, err
	}

	return func(yield func(string, error) bool) {
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				if text, ok := parseSSELine(line); ok && text != "" {
					if !yield(text, nil) {
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", fmt.Errorf("read stream: %w", err))
				}
				return
			}
		}
	}, nil
}

func (g *Gemini) post(ctx context.Context, model, method string, body geminiGenerateRequest) (*http.Response, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// The key goes in a header, never in the URL.
	url := fmt.Sprintf("%s/models/%s:%s", g.endpoint, model, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, chamerrors.NewTransportError(model+":"+method, 0, err)
	}

	g.log.WithFields(map[string]any{
		"request_id": ports.RequestID(ctx),
		"model":      model,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("gemini call")

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, chamerrors.NewTransportError(model+":"+method, resp.StatusCode, errors.New(strings.TrimSpace(string(detail))))
	}
	return resp, nil
}

func (g *Gemini) buildRequest(req Request) geminiGenerateRequest {
	parts := []geminiPart{{Text: req.Prompt}}
	for _, img := range req.Images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, geminiPart{InlineData: &geminiBlob{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	body := geminiGenerateRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	body.GenerationConfig.Temperature = req.Temperature
	if body.GenerationConfig.Temperature == 0 {
		body.GenerationConfig.Temperature = g.temperature
	}
	return body
}

// parseSSELine extracts the text of one "data: {...}" event line.
func parseSSELine(line []byte) (string, bool) {
	s := strings.TrimSpace(string(line))
	if !strings.HasPrefix(s, "data:") {
		return "", false
	}
	data := strings.TrimSpace(strings.TrimPrefix(s, "data:"))
	if data == "" || data == "[DONE]" {
		return "", false
	}

	var chunk geminiGenerateResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", false
	}
	text, err := chunk.text()
	if err != nil {
		return "", false
	}
	return text, true
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

type geminiGenerateRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (r geminiGenerateResponse) text() (string, error) {
	if len(r.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
