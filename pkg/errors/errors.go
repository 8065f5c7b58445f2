package errors

import (
	"fmt"
)

// ParseError represents a YAML or JSON decoding failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures a theme or configuration field that broke its contract.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// GenerationError reports a theme generation request that did not produce a usable vibe.
type GenerationError struct {
	Description string
	Reason      string
	Err         error
}

// NewGenerationError constructs a GenerationError.
func NewGenerationError(description, reason string, err error) error {
	return &GenerationError{Description: description, Reason: reason, Err: err}
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("theme generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("theme generation failed: %s", e.Reason)
}

// Unwrap exposes the root error.
func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RewriteError reports a failed or broken text rewrite stream.
type RewriteError struct {
	Tone   string
	Reason string
	Err    error
}

// NewRewriteError constructs a RewriteError for the given tone.
func NewRewriteError(tone, reason string, err error) error {
	return &RewriteError{Tone: tone, Reason: reason, Err: err}
}

func (e *RewriteError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("rewrite failed: %s", e.Reason)
	if e.Tone != "" {
		msg = fmt.Sprintf("rewrite failed [%s]: %s", e.Tone, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *RewriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StorageError indicates a persistence backend failure.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

// NewStorageError constructs a StorageError.
func NewStorageError(backend, op string, err error) error {
	return &StorageError{Backend: backend, Op: op, Err: err}
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("storage error [%s] %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap exposes the underlying error.
func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TransportError represents a failed call to a remote contract endpoint.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

// NewTransportError constructs a TransportError. Status is zero when no response was received.
func NewTransportError(endpoint string, status int, err error) error {
	return &TransportError{Endpoint: endpoint, Status: status, Err: err}
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Status > 0 {
		if e.Err != nil {
			return fmt.Sprintf("transport error on %s (status %d): %v", e.Endpoint, e.Status, e.Err)
		}
		return fmt.Sprintf("transport error on %s (status %d)", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("transport error on %s: %v", e.Endpoint, e.Err)
}

// Unwrap exposes the underlying error.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
