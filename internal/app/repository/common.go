package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"take-my-dictation/internal/app/errors"
)

// Driver names understood by NewResultStore
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// PlaceholderFunc generates parameter placeholders for different SQL dialects
type PlaceholderFunc func(n int) string

// ResultStore persists pipeline results. The SQL is shared between dialects;
// only placeholders and id retrieval differ.
type ResultStore struct {
	db           *sql.DB
	driverName   string
	placeholders PlaceholderFunc
}

// NewResultStore wraps an open database. The schema must already exist.
func NewResultStore(db *sql.DB, driverName string) *ResultStore {
	var placeholders PlaceholderFunc

	switch driverName {
	case DriverPostgres:
		placeholders = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		placeholders = func(n int) string { return "?" }
	}

	return &ResultStore{
		db:           db,
		driverName:   driverName,
		placeholders: placeholders,
	}
}

const insertColumns = `request_id, file_name, file_path, file_hash, outcome, final_text, language, confidence_score,
	quality_level, parameter_used, attempts_made, total_elapsed_ms, warnings, reason, created_at`

const selectColumns = `SELECT id, request_id, file_name, file_path, file_hash, outcome, final_text, language,
	confidence_score, quality_level, parameter_used, attempts_made, total_elapsed_ms, warnings, reason, created_at
	FROM transcription_results`

// Save inserts rec and returns its row id
func (s *ResultStore) Save(ctx context.Context, rec Record) (int64, error) {
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	encoded, err := json.Marshal(warnings)
	if err != nil {
		return 0, fmt.Errorf("failed to encode warnings: %w", err)
	}

	args := []interface{}{
		rec.RequestID, rec.FileName, rec.FilePath, rec.FileHash, rec.Outcome, rec.FinalText, rec.Language,
		rec.Confidence, rec.QualityLevel, rec.ParameterUsed, rec.AttemptsMade, rec.TotalElapsedMs,
		string(encoded), rec.Reason, rec.CreatedAt.UTC(),
	}
	params := make([]string, len(args))
	for i := range params {
		params[i] = s.placeholders(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO transcription_results (%s) VALUES (%s)", insertColumns, strings.Join(params, ", "))

	// lib/pq does not implement LastInsertId.
	if s.driverName == DriverPostgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to insert result: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// GetByFileHash returns the latest run of a file that produced a transcript.
// Failed and rejected runs are ignored so the file is retried.
func (s *ResultStore) GetByFileHash(ctx context.Context, hash string) (*Record, error) {
	query := fmt.Sprintf(
		"%s WHERE file_hash = %s AND outcome IN ('accepted', 'exhausted_fallback') ORDER BY id DESC LIMIT 1",
		selectColumns, s.placeholders(1),
	)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, hash))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrResultNotFound, "no transcript for %s", hash)
	}
	if err != nil {
		return nil, fmt.Errorf("db scan failed: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit runs, newest first
func (s *ResultStore) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("%s ORDER BY id DESC LIMIT %s", selectColumns, s.placeholders(1))
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("db scan failed: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return records, nil
}

// Close closes the database connection
func (s *ResultStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec      Record
		warnings string
	)
	err := row.Scan(&rec.ID, &rec.RequestID, &rec.FileName, &rec.FilePath, &rec.FileHash, &rec.Outcome,
		&rec.FinalText, &rec.Language, &rec.Confidence, &rec.QualityLevel, &rec.ParameterUsed,
		&rec.AttemptsMade, &rec.TotalElapsedMs, &warnings, &rec.Reason, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("corrupt warnings column: %w", err)
	}
	return &rec, nil
}
