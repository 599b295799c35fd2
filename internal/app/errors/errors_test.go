package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))

	err := Wrapf(ErrFileReadFailed, "reading %s", "a.wav")
	assert.Equal(t, "reading a.wav: file read failed", err.Error())
	assert.True(t, Is(err, ErrFileReadFailed))
	assert.False(t, Is(err, ErrFileWriteFailed))
}

func TestErrorIsComparesMessages(t *testing.T) {
	assert.True(t, Is(New("provider not found"), ErrProviderNotFound))
	assert.False(t, Is(fmt.Errorf("provider not found"), ErrProviderNotFound))
}

func TestInvalidAudioError(t *testing.T) {
	err := InvalidAudio("audio too short: %.2fs", 0.5)
	assert.Equal(t, "invalid audio: audio too short: 0.50s", err.Error())
	assert.True(t, Is(err, ErrInvalidAudio))
	assert.False(t, Is(err, ErrTranscriptionUnavailable))

	cause := fmt.Errorf("bad header")
	wrapped := fmt.Errorf("analyze: %w", InvalidAudioCause(cause, "cannot decode %s audio", "wav"))
	assert.True(t, Is(wrapped, ErrInvalidAudio))
	assert.True(t, Is(wrapped, cause))

	var target *InvalidAudioError
	assert.True(t, As(wrapped, &target))
	assert.Equal(t, "cannot decode wav audio", target.Reason)
}

func TestTranscriptionUnavailableError(t *testing.T) {
	err := &TranscriptionUnavailableError{Attempts: 3, Cause: context.DeadlineExceeded}
	assert.Equal(t, "transcription unavailable after 3 call(s): context deadline exceeded", err.Error())
	assert.True(t, Is(err, ErrTranscriptionUnavailable))
	assert.True(t, Is(err, context.DeadlineExceeded))
	assert.False(t, Is(err, ErrInvalidAudio))

	assert.Equal(t, "transcription unavailable after 0 call(s)", (&TranscriptionUnavailableError{}).Error())
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, "parameters is required", RequiredField("parameters").Error())
	assert.Equal(t, "max_attempts is invalid: too many", InvalidField("max_attempts", "too many").Error())
	assert.Equal(t, "threshold out of range (must be between 0 and 1)", OutOfRange("threshold", 0, 1).Error())
	assert.Equal(t, "result not found: abc", NotFound("result", "abc").Error())
}
