package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// FileStore keeps the vibe as a JSON document on disk.
type FileStore struct {
	path string
	log  *logger.Logger
}

// NewFileStore creates a FileStore writing to path. The directory is created
// on first save.
func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{path: path, log: orNop(log)}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the vibe atomically.
func (s *FileStore) Save(_ context.Context, v vibe.Vibe) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return chamerrors.NewStorageError("file", "save", fmt.Errorf("marshal vibe: %w", err))
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return chamerrors.NewStorageError("file", "save", err)
	}
	return nil
}

// Load reads the stored vibe.
func (s *FileStore) Load(_ context.Context) (vibe.Vibe, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.WithFields(map[string]any{"path": s.path}).WarnErr(err, "cannot read persisted vibe")
		}
		return vibe.Vibe{}, false
	}
	return decodeRecord(s.log, "file", data)
}

// Clear removes the stored vibe. Clearing an empty store is not an error.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return chamerrors.NewStorageError("file", "clear", err)
	}
	return nil
}

// writeFileAtomic writes to a temporary sibling then renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
