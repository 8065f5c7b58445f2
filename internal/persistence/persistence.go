// Package persistence stores the last applied vibe and its shareable slug.
//
// The full theme lives in private storage (a Store) while the slug lives in a
// navigable, shareable location (a SlugStore). A link should carry only a
// short preset-like identity, never an arbitrary theme payload.
package persistence

import (
	"context"
	"io"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

const (
	// DefaultKey is the storage key holding the serialized vibe.
	DefaultKey = "chameleon-vibe"
	// DefaultParam is the query parameter carrying the shareable slug.
	DefaultParam = "vibe"
)

// Store persists one vibe. Load never fails: missing, unreadable, malformed
// or invalid data is reported as absent.
type Store interface {
	Save(ctx context.Context, v vibe.Vibe) error
	Load(ctx context.Context) (vibe.Vibe, bool)
	Clear(ctx context.Context) error
}

// SlugStore reads and writes the shareable slug.
type SlugStore interface {
	ReadSlug(ctx context.Context) (string, bool)
	WriteSlug(ctx context.Context, slug string) error
	ClearSlug(ctx context.Context) error
}

// Close releases resources held by s, if it holds any.
func Close(s any) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// decodeRecord turns a stored record into a vibe, logging why a record is
// ignored. Corrupt records are treated as absent.
func decodeRecord(log *logger.Logger, backend string, data []byte) (vibe.Vibe, bool) {
	result := vibe.Decode(data)
	if !result.OK() {
		log.WithFields(map[string]any{"backend": backend}).WarnErr(result.Err, "ignoring unusable persisted vibe")
		return vibe.Vibe{}, false
	}
	return result.Vibe, true
}

func orNop(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
