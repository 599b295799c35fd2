package pg

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"take-my-dictation/internal/app/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcription_results (
	id               BIGSERIAL PRIMARY KEY,
	request_id       TEXT             NOT NULL,
	file_name        TEXT             NOT NULL,
	file_path        TEXT             NOT NULL,
	file_hash        TEXT             NOT NULL,
	outcome          TEXT             NOT NULL,
	final_text       TEXT             NOT NULL DEFAULT '',
	language         TEXT             NOT NULL DEFAULT '',
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	quality_level    TEXT             NOT NULL DEFAULT '',
	parameter_used   REAL             NOT NULL DEFAULT 0,
	attempts_made    INTEGER          NOT NULL DEFAULT 0,
	total_elapsed_ms BIGINT           NOT NULL DEFAULT 0,
	warnings         TEXT             NOT NULL DEFAULT '[]',
	reason           TEXT             NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcription_results_hash ON transcription_results (file_hash);
`

// Open connects to PostgreSQL with a lib/pq connection string and applies
// the schema.
func Open(ctx context.Context, connectionString string) (*repository.ResultStore, error) {
	db, err := sql.Open(repository.DriverPostgres, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return migrate(ctx, db)
}

func migrate(ctx context.Context, db *sql.DB) (*repository.ResultStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}
	return repository.NewResultStore(db, repository.DriverPostgres), nil
}
