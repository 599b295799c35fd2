package whisper_server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"take-my-dictation/internal/app/api/provider"
	"take-my-dictation/internal/app/quality"
)

const providerName = "whisper_server"

// WhisperServerProvider implements recognition via HTTP to a whisper.cpp
// whisper-server instance.
type WhisperServerProvider struct {
	config WhisperServerConfig
	client *http.Client
}

// WhisperServerConfig represents configuration for whisper-server HTTP API
type WhisperServerConfig struct {
	BaseURL       string            `yaml:"base_url"`       // e.g. "http://192.168.1.100:8080"
	InferencePath string            `yaml:"inference_path"` // default "/inference"
	Timeout       time.Duration     `yaml:"timeout"`
	Language      string            `yaml:"language"`
	Prompt        string            `yaml:"prompt"`
	MaxFileSizeMB int               `yaml:"max_file_size_mb"`
	CustomHeaders map[string]string `yaml:"custom_headers"`
}

// WhisperServerResponse represents the verbose_json response from whisper-server
type WhisperServerResponse struct {
	Text     string                 `json:"text,omitempty"`
	Task     string                 `json:"task,omitempty"`
	Language string                 `json:"language,omitempty"`
	Duration float64                `json:"duration,omitempty"`
	Segments []WhisperServerSegment `json:"segments,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// WhisperServerSegment represents a segment in verbose response
type WhisperServerSegment struct {
	ID           int     `json:"id"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Temperature  float64 `json:"temperature,omitempty"`
	AvgLogprob   float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
}

// NewWhisperServerProvider creates a new whisper-server HTTP provider
func NewWhisperServerProvider(config WhisperServerConfig) *WhisperServerProvider {
	if config.InferencePath == "" {
		config.InferencePath = "/inference"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Minute
	}
	if config.MaxFileSizeMB == 0 {
		config.MaxFileSizeMB = 100
	}
	if config.CustomHeaders == nil {
		config.CustomHeaders = make(map[string]string)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &WhisperServerProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Recognize implements provider.Recognizer
func (wsp *WhisperServerProvider) Recognize(ctx context.Context, request *provider.RecognitionRequest) (*provider.RecognitionResponse, error) {
	startTime := time.Now()

	if len(request.Audio) == 0 {
		return nil, &provider.TranscriptionError{
			Code:     "invalid_input",
			Kind:     provider.KindInvalidAudio,
			Message:  "audio payload is empty",
			Provider: providerName,
		}
	}

	body, contentType, err := wsp.createMultipartForm(request)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:     "form_creation_failed",
			Kind:     provider.KindInvalidRequest,
			Message:  fmt.Sprintf("failed to create multipart form: %v", err),
			Provider: providerName,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, wsp.config.BaseURL+wsp.config.InferencePath, body)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:     "request_creation_failed",
			Kind:     provider.KindInvalidRequest,
			Message:  fmt.Sprintf("failed to create HTTP request: %v", err),
			Provider: providerName,
		}
	}
	httpReq.Header.Set("Content-Type", contentType)
	for key, value := range wsp.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}

	resp, err := wsp.client.Do(httpReq)
	if err != nil {
		return nil, wsp.transportError(ctx, err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wsp.transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ErrorForStatus(providerName, resp.StatusCode,
			fmt.Sprintf("API returned status %d: %s", resp.StatusCode, truncate(string(responseData), 200)))
	}

	var parsed WhisperServerResponse
	if err := json.Unmarshal(responseData, &parsed); err != nil {
		return nil, &provider.TranscriptionError{
			Code:      "response_parse_failed",
			Kind:      provider.KindServiceUnavailable,
			Message:   fmt.Sprintf("failed to parse response: %v", err),
			Provider:  providerName,
			Retryable: true,
		}
	}
	if parsed.Error != "" {
		// whisper-server reports decode failures with HTTP 200 and an error field.
		return nil, &provider.TranscriptionError{
			Code:        "server_error",
			Kind:        provider.KindInvalidAudio,
			Message:     parsed.Error,
			Provider:    providerName,
			Suggestions: []string{"Check audio file format", "Verify whisper-server is running correctly"},
		}
	}

	response := &provider.RecognitionResponse{
		Text:           strings.TrimSpace(parsed.Text),
		Language:       parsed.Language,
		Duration:       time.Duration(parsed.Duration * float64(time.Second)),
		ProcessingTime: time.Since(startTime),
		ModelUsed:      "whisper-server",
	}
	for _, s := range parsed.Segments {
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

// createMultipartForm creates the multipart form for the API request
func (wsp *WhisperServerProvider) createMultipartForm(request *provider.RecognitionRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	format := request.Format
	if format == "" {
		format = "wav"
	}
	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err := part.Write(request.Audio); err != nil {
		return nil, "", fmt.Errorf("failed to copy audio content: %v", err)
	}

	fields := [][2]string{
		{"response_format", "verbose_json"},
		{"temperature", fmt.Sprintf("%.2f", request.Temperature)},
	}
	if language := firstNonEmpty(request.Language, wsp.config.Language); language != "" {
		fields = append(fields, [2]string{"language", language})
	}
	if prompt := firstNonEmpty(request.Prompt, wsp.config.Prompt); prompt != "" {
		fields = append(fields, [2]string{"prompt", prompt})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %v", f[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (wsp *WhisperServerProvider) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	kind := provider.KindServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		kind = provider.KindTimeout
	}
	return &provider.TranscriptionError{
		Code:      "request_failed",
		Kind:      kind,
		Message:   fmt.Sprintf("HTTP request failed: %v", err),
		Provider:  providerName,
		Retryable: true,
		Cause:     err,
	}
}

// GetProviderInfo returns metadata about the whisper-server provider
func (wsp *WhisperServerProvider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        providerName,
		DisplayName: "Whisper Server (HTTP)",
		Type:        provider.ProviderTypeLocal,
		SupportedFormats: []provider.AudioFormat{
			provider.FormatWAV,
			provider.FormatMP3,
			provider.FormatFLAC,
			provider.FormatOGG,
		},
		MaxFileSizeMB:      wsp.config.MaxFileSizeMB,
		SupportsConfidence: true,
		DefaultModel:       "base",
	}
}

// ValidateConfiguration validates the provider configuration
func (wsp *WhisperServerProvider) ValidateConfiguration() error {
	if wsp.config.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !strings.HasPrefix(wsp.config.BaseURL, "http://") && !strings.HasPrefix(wsp.config.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://")
	}
	if wsp.config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
