package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
)

var createdAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var columns = []string{"id", "request_id", "file_name", "file_path", "file_hash", "outcome", "final_text", "language",
	"confidence_score", "quality_level", "parameter_used", "attempts_made", "total_elapsed_ms", "warnings", "reason", "created_at"}

func newMockStore(t *testing.T, driver string) (*ResultStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewResultStore(db, driver), mock
}

func TestNewRecord(t *testing.T) {
	file := model.FileInfo{Name: "memo.wav", FullPath: "/in/memo.wav"}
	fallback := model.FallbackResult{
		Transcript:    model.Transcript{FinalText: "hello hello", Language: "en", ConfidenceScore: 0.6, QualityLevel: model.QualityFair, ParameterUsed: 0.4},
		ResultSummary: model.ResultSummary{AttemptsMade: 5, TotalElapsedMs: 900, Warnings: []string{"best-effort result"}},
	}

	rec := NewRecord("req", file, "h", fallback, createdAt)
	assert.Equal(t, "exhausted_fallback", rec.Outcome)
	assert.Equal(t, "fair", rec.QualityLevel)
	assert.Equal(t, float32(0.4), rec.ParameterUsed)
	assert.Equal(t, 5, rec.AttemptsMade)
	assert.Equal(t, "/in/memo.wav", rec.FilePath)

	rejected := NewErrorRecord("req", file, "h", OutcomeInvalidAudio, errors.InvalidAudio("too short"), createdAt)
	assert.Equal(t, OutcomeInvalidAudio, rejected.Outcome)
	assert.Equal(t, "invalid audio: too short", rejected.Reason)
	assert.Empty(t, rejected.QualityLevel)
}

func TestResultStore_SaveSQLite(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)
	mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := store.Save(context.Background(), Record{RequestID: "req", FileName: "a.wav", Outcome: "accepted", CreatedAt: createdAt})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_SavePostgres(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := store.Save(context.Background(), Record{FileName: "a.wav", Outcome: "accepted", Warnings: []string{"w"}, CreatedAt: createdAt})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_SaveError(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcription_results")).
		WillReturnError(fmt.Errorf("disk I/O error"))

	_, err := store.Save(context.Background(), Record{FileName: "a.wav", Outcome: "accepted", CreatedAt: createdAt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert result")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_GetByFileHash(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE file_hash = ? AND outcome IN ('accepted', 'exhausted_fallback')")).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(7, "req", "a.wav", "/a.wav", "h1", "exhausted_fallback", "text", "en", 0.6, "fair", 0.4, 5, 900, `["best-effort"]`, "", createdAt))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE file_hash = ?")).
		WithArgs("h2").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(8, "req", "b.wav", "/b.wav", "h2", "accepted", "text", "en", 0.9, "good", 0.2, 1, 100, `not json`, "", createdAt))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE file_hash = ?")).
		WithArgs("h3").
		WillReturnError(fmt.Errorf("database is locked"))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE file_hash = ?")).
		WithArgs("h4").
		WillReturnRows(sqlmock.NewRows(columns))

	rec, err := store.GetByFileHash(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, []string{"best-effort"}, rec.Warnings)

	_, err = store.GetByFileHash(context.Background(), "h2")
	assert.ErrorContains(t, err, "corrupt warnings column")

	_, err = store.GetByFileHash(context.Background(), "h3")
	assert.ErrorContains(t, err, "database is locked")
	assert.False(t, errors.Is(err, errors.ErrResultNotFound))

	_, err = store.GetByFileHash(context.Background(), "h4")
	assert.True(t, errors.Is(err, errors.ErrResultNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_ListRecentPostgresPlaceholder(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id DESC LIMIT $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(2, "r2", "b.wav", "/b.wav", "h2", "failed", "", "", 0.0, "", 0.0, 5, 10, `[]`, "no usable transcript", createdAt).
			AddRow(1, "r1", "a.wav", "/a.wav", "h1", "accepted", "hi", "en", 0.9, "good", 0.2, 1, 10, `[]`, "", createdAt))

	records, err := store.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "failed", records[0].Outcome)
	assert.Equal(t, "hi", records[1].FinalText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStore_ListRecentQueryError(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id DESC LIMIT ?")).
		WithArgs(20).
		WillReturnError(fmt.Errorf("no such table"))

	_, err := store.ListRecent(context.Background(), 0)
	assert.ErrorContains(t, err, "query failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
