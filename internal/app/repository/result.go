package repository

import (
	"time"

	"take-my-dictation/internal/app/model"
)

// Outcome labels for requests that ended in an error instead of a result
const (
	OutcomeInvalidAudio = "invalid_audio"
	OutcomeUnavailable  = "unavailable"
)

// Record is one persisted pipeline run for an audio file.
type Record struct {
	ID             int64
	RequestID      string
	FileName       string
	FilePath       string
	FileHash       string
	Outcome        string
	FinalText      string
	Language       string
	Confidence     float64
	QualityLevel   string
	ParameterUsed  float32
	AttemptsMade   int
	TotalElapsedMs int64
	Warnings       []string
	Reason         string
	CreatedAt      time.Time
}

// NewRecord flattens a pipeline result for storage
func NewRecord(requestID string, file model.FileInfo, hash string, result model.TranscriptionResult, now time.Time) Record {
	view := model.View(result)
	rec := Record{
		RequestID:      requestID,
		FileName:       file.Name,
		FilePath:       file.FullPath,
		FileHash:       hash,
		Outcome:        view.Outcome.String(),
		AttemptsMade:   view.AttemptsMade,
		TotalElapsedMs: view.TotalElapsedMs,
		Warnings:       view.Warnings,
		Reason:         view.Reason,
		CreatedAt:      now,
	}
	if view.Transcript != nil {
		rec.FinalText = view.FinalText
		rec.Language = view.Language
		rec.Confidence = view.ConfidenceScore
		rec.QualityLevel = view.QualityLevel.String()
		rec.ParameterUsed = view.ParameterUsed
	}
	return rec
}

// NewErrorRecord stores a run that produced an error instead of a result
func NewErrorRecord(requestID string, file model.FileInfo, hash string, outcome string, err error, now time.Time) Record {
	return Record{
		RequestID: requestID,
		FileName:  file.Name,
		FilePath:  file.FullPath,
		FileHash:  hash,
		Outcome:   outcome,
		Reason:    err.Error(),
		CreatedAt: now,
	}
}
