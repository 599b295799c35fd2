package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"take-my-dictation/internal/app/api/provider"
	"take-my-dictation/internal/app/quality"
)

const providerName = "openai"

// Config represents configuration specific to the OpenAI Whisper recognizer
type Config struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Prompt   string `yaml:"prompt"`
	BaseURL  string `yaml:"base_url"`
}

// RemoteRecognizer transcribes through the OpenAI audio API. It always asks
// for verbose_json so segment log-probabilities are available for scoring.
type RemoteRecognizer struct {
	client *openai.Client
	config Config
}

// NewRemoteRecognizer creates a new RemoteRecognizer instance.
func NewRemoteRecognizer(client *openai.Client, config Config) *RemoteRecognizer {
	if config.Model == "" {
		config.Model = openai.Whisper1
	}
	return &RemoteRecognizer{client: client, config: config}
}

// Recognize implements provider.Recognizer
func (rr *RemoteRecognizer) Recognize(ctx context.Context, request *provider.RecognitionRequest) (*provider.RecognitionResponse, error) {
	startTime := time.Now()

	if len(request.Audio) == 0 {
		return nil, &provider.TranscriptionError{
			Code:     "invalid_input",
			Kind:     provider.KindInvalidAudio,
			Message:  "audio payload is empty",
			Provider: providerName,
		}
	}

	format := request.Format
	if format == "" {
		format = "mp3"
	}
	audioRequest := openai.AudioRequest{
		Model:       rr.pick(request.Model, rr.config.Model),
		FilePath:    "audio." + format,
		Reader:      bytes.NewReader(request.Audio),
		Prompt:      rr.pick(request.Prompt, rr.config.Prompt),
		Temperature: request.Temperature,
		Language:    rr.pick(request.Language, rr.config.Language),
		Format:      openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := rr.client.CreateTranscription(ctx, audioRequest)
	if err != nil {
		return nil, handleAPIError(ctx, err)
	}

	response := &provider.RecognitionResponse{
		Text:           strings.TrimSpace(resp.Text),
		Language:       resp.Language,
		Duration:       time.Duration(resp.Duration * float64(time.Second)),
		ProcessingTime: time.Since(startTime),
		ModelUsed:      audioRequest.Model,
	}
	for _, s := range resp.Segments {
		response.Segments = append(response.Segments, provider.Segment{
			ID:           s.ID,
			Text:         s.Text,
			Start:        s.Start,
			End:          s.End,
			AvgLogprob:   s.AvgLogprob,
			NoSpeechProb: s.NoSpeechProb,
			Probability:  quality.SegmentProbability(s.AvgLogprob),
		})
	}
	return response, nil
}

func (rr *RemoteRecognizer) pick(requested, configured string) string {
	if requested != "" {
		return requested
	}
	return configured
}

// handleAPIError converts OpenAI client errors to TranscriptionError
func handleAPIError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &provider.TranscriptionError{
				Code:      "timeout",
				Kind:      provider.KindTimeout,
				Message:   "OpenAI request exceeded its deadline",
				Provider:  providerName,
				Retryable: true,
				Cause:     ctxErr,
			}
		}
		return ctxErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		te := provider.ErrorForStatus(providerName, apiErr.HTTPStatusCode, fmt.Sprintf("OpenAI API error: %s", apiErr.Message))
		te.Cause = err
		return te
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		te := provider.ErrorForStatus(providerName, reqErr.HTTPStatusCode, fmt.Sprintf("OpenAI request failed: %v", reqErr.Err))
		te.Cause = err
		return te
	}

	// Connection resets, DNS failures and malformed bodies end up here.
	return &provider.TranscriptionError{
		Code:      "request_failed",
		Kind:      provider.KindServiceUnavailable,
		Message:   fmt.Sprintf("Transcription request failed: %v", err),
		Provider:  providerName,
		Retryable: true,
		Cause:     err,
	}
}

// GetProviderInfo returns metadata about the OpenAI provider
func (rr *RemoteRecognizer) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        providerName,
		DisplayName: "OpenAI Whisper API",
		Type:        provider.ProviderTypeRemote,
		SupportedFormats: []provider.AudioFormat{
			provider.FormatMP3,
			provider.FormatMP4,
			provider.FormatM4A,
			provider.FormatWAV,
			provider.FormatWEBM,
			provider.FormatMPEG,
			provider.FormatMPGA,
		},
		MaxFileSizeMB:      25,
		SupportsConfidence: true,
		RequiresAPIKey:     true,
		DefaultModel:       openai.Whisper1,
	}
}

// ValidateConfiguration validates the provider configuration
func (rr *RemoteRecognizer) ValidateConfiguration() error {
	if rr.config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if !strings.HasPrefix(rr.config.APIKey, "sk-") {
		return fmt.Errorf("OpenAI API key should start with 'sk-'")
	}
	return nil
}
