package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/alexisbeaulieu97/chameleon/internal/llm"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

type vibeRequest struct {
	Description json.RawMessage `json:"description"`
}

// handleVibe generates a theme. Every failure past input validation answers
// with the default preset so pages keep a usable theme.
func (s *Server) handleVibe(w http.ResponseWriter, r *http.Request) {
	var req vibeRequest
	var description string
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err == nil {
		_ = json.Unmarshal(req.Description, &description)
	}
	if strings.TrimSpace(description) == "" {
		writeError(w, http.StatusBadRequest, "Description is required")
		return
	}

	log := s.log.With("request_id", ports.RequestID(r.Context()))
	if s.gen == nil {
		log.Warn("no theme generator configured, answering with the default vibe")
		writeJSON(w, http.StatusOK, s.registry.Default())
		return
	}

	candidate, err := s.gen.Generate(r.Context(), description)
	if err == nil {
		err = vibe.Validate(candidate)
	}
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			log.Warn("model api key not set, answering with the default vibe")
		} else {
			log.WarnErr(err, "theme generation failed, answering with the default vibe")
		}
		writeJSON(w, http.StatusOK, s.registry.Default())
		return
	}

	writeJSON(w, http.StatusOK, candidate)
}

func (s *Server) handleVibeUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": `POST to this endpoint with { "description": "your vibe" }`,
		"example": map[string]string{"description": "Make it look like a hacker movie"},
	})
}

// handleRewrite streams rewritten text. Failures before the first byte answer
// with the original text; a failure mid-stream aborts the connection so the
// client sees a broken stream instead of a truncated success.
func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req ports.RewriteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "Text is required", http.StatusBadRequest)
		return
	}
	if req.Tone == "" {
		req.Tone = vibe.ToneNeutral
	}
	if !req.Tone.Valid() {
		http.Error(w, "Unknown tone", http.StatusBadRequest)
		return
	}
	if req.EmojiFrequency != "" && !req.EmojiFrequency.Valid() {
		http.Error(w, "Unknown emoji frequency", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	log := s.log.WithFields(map[string]any{"request_id": ports.RequestID(r.Context()), "tone": string(req.Tone)})

	if req.Tone == vibe.ToneNeutral || s.rewriter == nil {
		_, _ = io.WriteString(w, req.Text)
		return
	}

	stream, err := s.rewriter.Rewrite(r.Context(), req)
	if err != nil {
		log.WarnErr(err, "rewrite failed, answering with the original text")
		_, _ = io.WriteString(w, req.Text)
		return
	}

	rc := http.NewResponseController(w)
	wrote := false
	for chunk, err := range stream {
		if err != nil {
			if !wrote {
				log.WarnErr(err, "rewrite failed, answering with the original text")
				_, _ = io.WriteString(w, req.Text)
				return
			}
			log.WarnErr(err, "rewrite stream broke, aborting response")
			panic(http.ErrAbortHandler)
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			log.Debug("client went away during rewrite")
			return
		}
		wrote = true
		_ = rc.Flush()
	}

	if !wrote {
		_, _ = io.WriteString(w, req.Text)
	}
}

func (s *Server) handleRewriteUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "POST to this endpoint with { text, tone, emojiFrequency }",
		"example": ports.RewriteRequest{
			Text:           "The mitochondria is the powerhouse of the cell.",
			Tone:           vibe.ToneSimplified,
			EmojiFrequency: vibe.EmojiHigh,
		},
	})
}

type analyzeRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
}

type analyzeResponse struct {
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Description string    `json:"description"`
	Vibe        vibe.Vibe `json:"vibe"`
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Image == "" {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}

	log := s.log.With("request_id", ports.RequestID(r.Context()))
	fallback := func(err error) {
		log.WarnErr(err, "image analysis failed, answering with the fallback theme")
		fb := llm.FallbackExtraction()
		writeJSON(w, http.StatusOK, analyzeResponse{
			Success:     false,
			Error:       fb.Error,
			Description: fb.Description,
			Vibe:        fb.Vibe,
		})
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		fallback(err)
		return
	}
	if s.extractor == nil {
		fallback(llm.ErrNotConfigured)
		return
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	extraction, err := s.extractor.Extract(r.Context(), ports.ExtractRequest{Image: image, MimeType: mimeType})
	if err == nil {
		err = vibe.Validate(extraction.Vibe)
	}
	if err != nil {
		fallback(err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:     true,
		Description: extraction.Description,
		Vibe:        extraction.Vibe,
	})
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if comma := strings.IndexByte(encoded, ','); comma >= 0 {
			encoded = encoded[comma+1:]
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}
