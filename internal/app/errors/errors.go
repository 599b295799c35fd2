package errors

import (
	stderrors "errors"
	"fmt"
)

// Common error types
var (
	// Input errors
	ErrInvalidAudio = New("invalid audio")

	// Recognizer errors
	ErrTranscriptionUnavailable = New("transcription unavailable")
	ErrProviderNotFound         = New("provider not found")

	// Configuration errors
	ErrMissingAPIKey = New("API key is required")
	ErrInvalidAPIKey = New("invalid API key format")
	ErrInvalidConfig = New("invalid configuration")

	// File errors
	ErrFileNotFound     = New("file not found")
	ErrFileReadFailed   = New("file read failed")
	ErrFileWriteFailed  = New("file write failed")
	ErrWorkspaceRelease = New("workspace release failed")

	// Storage errors
	ErrResultNotFound = New("result not found")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// InvalidAudioError is returned when the input audio cannot be transcribed at all:
// it is undecodable, outside the accepted duration range, or cannot be brought
// within the recognizer's limits.
type InvalidAudioError struct {
	Reason string
	Cause  error
}

// InvalidAudio creates an InvalidAudioError with a formatted reason
func InvalidAudio(format string, args ...interface{}) *InvalidAudioError {
	return &InvalidAudioError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidAudioCause creates an InvalidAudioError wrapping the decoder or backend failure
func InvalidAudioCause(cause error, format string, args ...interface{}) *InvalidAudioError {
	return &InvalidAudioError{Reason: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *InvalidAudioError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid audio: %s: %v", e.Reason, e.Cause)
	}
	return "invalid audio: " + e.Reason
}

func (e *InvalidAudioError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrInvalidAudio) hold for every InvalidAudioError
func (e *InvalidAudioError) Is(target error) bool {
	return target == ErrInvalidAudio
}

// TranscriptionUnavailableError is returned when the recognizer could not be
// reached (or kept failing) after transport retries were exhausted.
type TranscriptionUnavailableError struct {
	Attempts int
	Cause    error
}

func (e *TranscriptionUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transcription unavailable after %d call(s): %v", e.Attempts, e.Cause)
	}
	return fmt.Sprintf("transcription unavailable after %d call(s)", e.Attempts)
}

func (e *TranscriptionUnavailableError) Unwrap() error {
	return e.Cause
}

func (e *TranscriptionUnavailableError) Is(target error) bool {
	return target == ErrTranscriptionUnavailable
}

// Helper functions for common patterns

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Newf("%s is required", field)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return Newf("%s is invalid: %s", field, reason)
}

// OutOfRange returns an error for values outside acceptable range
func OutOfRange(field string, min, max interface{}) error {
	return Newf("%s out of range (must be between %v and %v)", field, min, max)
}

// NotFound returns an error for items that were not found
func NotFound(itemType string, identifier string) error {
	return Newf("%s not found: %s", itemType, identifier)
}
