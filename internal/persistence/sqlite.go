package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps the vibe as one row of a key/value table.
type SQLiteStore struct {
	db  *sql.DB
	key string
	log *logger.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path, key string, log *logger.Logger) (*SQLiteStore, error) {
	if key == "" {
		key = DefaultKey
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, chamerrors.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, chamerrors.NewStorageError("sqlite", "open", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, chamerrors.NewStorageError("sqlite", "migrate", err)
	}

	return &SQLiteStore{db: db, key: key, log: orNop(log)}, nil
}

// Save upserts the vibe row.
func (s *SQLiteStore) Save(ctx context.Context, v vibe.Vibe) error {
	data, err := json.Marshal(v)
	if err != nil {
		return chamerrors.NewStorageError("sqlite", "save", fmt.Errorf("marshal vibe: %w", err))
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return chamerrors.NewStorageError("sqlite", "save", err)
	}
	return nil
}

// Load reads the vibe row.
func (s *SQLiteStore) Load(ctx context.Context) (vibe.Vibe, bool) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.WarnErr(err, "cannot read persisted vibe from sqlite")
		}
		return vibe.Vibe{}, false
	}
	return decodeRecord(s.log, "sqlite", []byte(raw))
}

// Clear deletes the vibe row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, s.key); err != nil {
		return chamerrors.NewStorageError("sqlite", "clear", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
