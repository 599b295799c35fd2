package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"take-my-dictation/internal/app/api/provider"
)

// MockRecognizer is a deterministic provider.Recognizer for pipeline tests.
// Responses are scripted per temperature; transport failures can be queued
// ahead of them. When testify expectations are registered with
// ExpectRecognizeCall they take precedence over the script.
type MockRecognizer struct {
	mock.Mock
	mu sync.Mutex

	Info provider.ProviderInfo

	ResponseByTemperature map[float32]*provider.RecognitionResponse
	DefaultResponse       *provider.RecognitionResponse
	// Failures are returned one per call, in order, before any response.
	Failures []error
	Latency  time.Duration

	CallHistory []RecognitionCall
}

// RecognitionCall represents a single recognizer call for tracking
type RecognitionCall struct {
	Temperature float32
	Format      string
	AudioSize   int
	Err         error
}

// NewMockRecognizer creates a MockRecognizer advertising Whisper-like capabilities
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{
		Info: provider.ProviderInfo{
			Name:        "mock",
			DisplayName: "Mock Recognizer",
			Type:        provider.ProviderTypeLocal,
			SupportedFormats: []provider.AudioFormat{
				provider.FormatMP3, provider.FormatMP4, provider.FormatM4A, provider.FormatWAV,
				provider.FormatWEBM, provider.FormatMPEG, provider.FormatMPGA,
			},
			MaxFileSizeMB:      25,
			SupportsConfidence: true,
		},
		ResponseByTemperature: make(map[float32]*provider.RecognitionResponse),
		DefaultResponse:       Response("This is a mock transcription result.", 0.95),
	}
}

// WithResponse scripts the response for one temperature
func (m *MockRecognizer) WithResponse(temperature float32, resp *provider.RecognitionResponse) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseByTemperature[temperature] = resp
	return m
}

// WithDefaultResponse sets the response for unscripted temperatures
func (m *MockRecognizer) WithDefaultResponse(resp *provider.RecognitionResponse) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultResponse = resp
	return m
}

// WithFailures queues errors returned by the next calls
func (m *MockRecognizer) WithFailures(errs ...error) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures = append(m.Failures, errs...)
	return m
}

// WithLatency makes every call wait (respecting ctx) before answering
func (m *MockRecognizer) WithLatency(latency time.Duration) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Latency = latency
	return m
}

// ExpectRecognizeCall registers a testify expectation keyed on temperature
func (m *MockRecognizer) ExpectRecognizeCall(temperature interface{}, resp *provider.RecognitionResponse, err error) *mock.Call {
	return m.On("Recognize", temperature).Return(resp, err)
}

// Recognize implements provider.Recognizer
func (m *MockRecognizer) Recognize(ctx context.Context, request *provider.RecognitionRequest) (*provider.RecognitionResponse, error) {
	m.mu.Lock()
	latency := m.Latency
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			m.record(request, ctx.Err())
			return nil, ctx.Err()
		}
	}

	if len(m.ExpectedCalls) > 0 {
		args := m.Called(request.Temperature)
		resp, _ := args.Get(0).(*provider.RecognitionResponse)
		err := args.Error(1)
		m.record(request, err)
		return cloneResponse(resp), err
	}

	m.mu.Lock()
	var err error
	if len(m.Failures) > 0 {
		err = m.Failures[0]
		m.Failures = m.Failures[1:]
	}
	resp, ok := m.ResponseByTemperature[request.Temperature]
	if !ok {
		resp = m.DefaultResponse
	}
	m.mu.Unlock()

	m.record(request, err)
	if err != nil {
		return nil, err
	}
	return cloneResponse(resp), nil
}

// GetProviderInfo implements provider.Recognizer
func (m *MockRecognizer) GetProviderInfo() provider.ProviderInfo {
	return m.Info
}

// GetCallCount returns the number of Recognize calls made so far
func (m *MockRecognizer) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CallHistory)
}

// Temperatures returns the temperature of every call, in order
func (m *MockRecognizer) Temperatures() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	temps := make([]float32, len(m.CallHistory))
	for i, c := range m.CallHistory {
		temps[i] = c.Temperature
	}
	return temps
}

func (m *MockRecognizer) record(request *provider.RecognitionRequest, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallHistory = append(m.CallHistory, RecognitionCall{
		Temperature: request.Temperature,
		Format:      request.Format,
		AudioSize:   len(request.Audio),
		Err:         err,
	})
}

// Response builds a recognizer response with one segment per probability.
func Response(text string, segmentProbabilities ...float64) *provider.RecognitionResponse {
	resp := &provider.RecognitionResponse{Text: text, Language: "en", ModelUsed: "mock"}
	for i, p := range segmentProbabilities {
		resp.Segments = append(resp.Segments, provider.Segment{ID: i, Probability: p})
	}
	return resp
}

// TransportError is a retryable recognizer failure.
func TransportError(message string) error {
	return &provider.TranscriptionError{
		Code:      "service_unavailable",
		Kind:      provider.KindServiceUnavailable,
		Message:   message,
		Provider:  "mock",
		Retryable: true,
	}
}

func cloneResponse(resp *provider.RecognitionResponse) *provider.RecognitionResponse {
	if resp == nil {
		return nil
	}
	c := *resp
	c.Segments = append([]provider.Segment(nil), resp.Segments...)
	return &c
}
