package provider

import (
	"fmt"
	"strings"
	"time"
)

// AudioFormat defines supported audio formats
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatMP3  AudioFormat = "mp3"
	FormatMP4  AudioFormat = "mp4"
	FormatM4A  AudioFormat = "m4a"
	FormatWEBM AudioFormat = "webm"
	FormatMPEG AudioFormat = "mpeg"
	FormatMPGA AudioFormat = "mpga"
	FormatFLAC AudioFormat = "flac"
	FormatOGG  AudioFormat = "ogg"
)

// ProviderType defines the type of transcription provider
type ProviderType string

const (
	ProviderTypeLocal  ProviderType = "local"
	ProviderTypeRemote ProviderType = "remote"
)

// RecognitionRequest is one call to a speech recognizer.
type RecognitionRequest struct {
	Audio []byte `json:"-"`
	// Format is the container of Audio, used to name the upload.
	Format string `json:"format"`

	Language    string  `json:"language,omitempty"`
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt,omitempty"`
	Temperature float32 `json:"temperature"`
}

// RecognitionResponse represents the response from a recognizer
type RecognitionResponse struct {
	Text     string        `json:"text"`
	Language string        `json:"language,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Segments []Segment     `json:"segments,omitempty"`

	ProcessingTime time.Duration `json:"processing_time,omitempty"`
	ModelUsed      string        `json:"model_used,omitempty"`
}

// SegmentProbabilities returns the per-segment probabilities in order.
func (r *RecognitionResponse) SegmentProbabilities() []float64 {
	if len(r.Segments) == 0 {
		return nil
	}
	probs := make([]float64, len(r.Segments))
	for i, s := range r.Segments {
		probs[i] = s.Probability
	}
	return probs
}

// Segment represents a time-segmented piece of transcription. Probability is
// already in [0,1]; adapters convert log-probabilities before filling it.
type Segment struct {
	ID           int     `json:"id"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	AvgLogprob   float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
	Probability  float64 `json:"probability"`
}

// ProviderInfo contains metadata about a recognizer
type ProviderInfo struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Type        ProviderType `json:"type"`

	SupportedFormats []AudioFormat `json:"supported_formats"`
	MaxFileSizeMB    int           `json:"max_file_size_mb,omitempty"` // 0 means no limit

	SupportsConfidence bool   `json:"supports_confidence"`
	RequiresAPIKey     bool   `json:"requires_api_key"`
	DefaultModel       string `json:"default_model,omitempty"`
}

// Capabilities is the static description of what a recognizer accepts.
type Capabilities struct {
	SupportedFormats []string `json:"supported_formats"`
	MaxPayloadBytes  int64    `json:"max_payload_bytes"`
}

// CapabilitiesFromInfo derives capabilities from provider metadata
func CapabilitiesFromInfo(info ProviderInfo) Capabilities {
	formats := make([]string, 0, len(info.SupportedFormats))
	for _, f := range info.SupportedFormats {
		formats = append(formats, strings.ToLower(string(f)))
	}
	return Capabilities{
		SupportedFormats: formats,
		MaxPayloadBytes:  int64(info.MaxFileSizeMB) << 20,
	}
}

// ErrorKind classifies recognizer failures
type ErrorKind string

const (
	KindRateLimited        ErrorKind = "rate_limited"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindTimeout            ErrorKind = "timeout"
	KindInvalidAudio       ErrorKind = "invalid_audio"
	KindAuthentication     ErrorKind = "authentication"
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindUnknown            ErrorKind = "unknown"
)

// TranscriptionError represents provider-specific errors
type TranscriptionError struct {
	Code        string    `json:"code"`
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	Provider    string    `json:"provider"`
	Retryable   bool      `json:"retryable"`
	StatusCode  int       `json:"status_code,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Cause       error     `json:"-"`
}

func (e *TranscriptionError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return e.Message
}

func (e *TranscriptionError) Unwrap() error {
	return e.Cause
}

// IsTransport reports whether the failure is worth retrying with backoff.
func (e *TranscriptionError) IsTransport() bool {
	switch e.Kind {
	case KindRateLimited, KindServiceUnavailable, KindTimeout:
		return true
	case KindInvalidAudio, KindAuthentication, KindInvalidRequest:
		return false
	default:
		return e.Retryable
	}
}

// ErrorForStatus builds a TranscriptionError from an HTTP status code
func ErrorForStatus(providerName string, status int, message string) *TranscriptionError {
	e := &TranscriptionError{Provider: providerName, StatusCode: status, Message: message}
	switch {
	case status == 401 || status == 403:
		e.Code, e.Kind = "authentication_failed", KindAuthentication
		e.Suggestions = []string{"Check your API key"}
	case status == 429:
		e.Code, e.Kind, e.Retryable = "rate_limit_exceeded", KindRateLimited, true
		e.Suggestions = []string{"Wait a moment and try again"}
	case status == 408 || status == 504:
		e.Code, e.Kind, e.Retryable = "timeout", KindTimeout, true
	case status >= 500:
		e.Code, e.Kind, e.Retryable = "service_unavailable", KindServiceUnavailable, true
	case status == 413 || status == 415:
		e.Code, e.Kind = "invalid_audio", KindInvalidAudio
		e.Suggestions = []string{"Reduce file size", "Try converting to a supported format"}
	case status == 400 || status == 422:
		e.Code, e.Kind = "invalid_audio", KindInvalidAudio
		e.Suggestions = []string{"Check file format"}
	default:
		e.Code, e.Kind = "api_error", KindInvalidRequest
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%s returned HTTP %d", providerName, status)
	}
	return e
}
