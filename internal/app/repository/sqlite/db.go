package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"take-my-dictation/internal/app/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcription_results (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id       TEXT    NOT NULL,
	file_name        TEXT    NOT NULL,
	file_path        TEXT    NOT NULL,
	file_hash        TEXT    NOT NULL,
	outcome          TEXT    NOT NULL,
	final_text       TEXT    NOT NULL DEFAULT '',
	language         TEXT    NOT NULL DEFAULT '',
	confidence_score REAL    NOT NULL DEFAULT 0,
	quality_level    TEXT    NOT NULL DEFAULT '',
	parameter_used   REAL    NOT NULL DEFAULT 0,
	attempts_made    INTEGER NOT NULL DEFAULT 0,
	total_elapsed_ms INTEGER NOT NULL DEFAULT 0,
	warnings         TEXT    NOT NULL DEFAULT '[]',
	reason           TEXT    NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcription_results_hash ON transcription_results (file_hash);
`

// Open opens (creating if needed) the result database at path and applies
// the schema. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*repository.ResultStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=5000", path)
	}

	db, err := sql.Open(repository.DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}
	return repository.NewResultStore(db, repository.DriverSQLite), nil
}
