package provider

import (
	"context"
)

// Recognizer is the speech-to-text backend contract. Implementations must
// honour ctx cancellation and report failures as *TranscriptionError so the
// caller can tell transport problems from bad input.
type Recognizer interface {
	Recognize(ctx context.Context, request *RecognitionRequest) (*RecognitionResponse, error)

	// Provider metadata and capabilities
	GetProviderInfo() ProviderInfo
}

// CapabilityProvider reports what the recognizer accepts.
type CapabilityProvider interface {
	Capabilities() Capabilities
}

// StaticCapabilities is a CapabilityProvider backed by configuration.
type StaticCapabilities Capabilities

func (s StaticCapabilities) Capabilities() Capabilities {
	formats := make([]string, len(s.SupportedFormats))
	copy(formats, s.SupportedFormats)
	return Capabilities{SupportedFormats: formats, MaxPayloadBytes: s.MaxPayloadBytes}
}

// Validator is implemented by recognizers that can check their own configuration.
type Validator interface {
	ValidateConfiguration() error
}
