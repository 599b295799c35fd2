package whisper_server

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"take-my-dictation/internal/app/api/provider"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *WhisperServerProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewWhisperServerProvider(WhisperServerConfig{BaseURL: server.URL + "/", Language: "en"})
}

func TestWhisperServerProvider_Recognize(t *testing.T) {
	var form map[string]string
	var filename string
	var audio []byte

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inference", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))
		form = map[string]string{
			"response_format": r.FormValue("response_format"),
			"temperature":     r.FormValue("temperature"),
			"language":        r.FormValue("language"),
		}
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		filename = header.Filename
		audio, _ = io.ReadAll(file)

		_, _ = w.Write([]byte(`{
			"text": " hello there ",
			"language": "en",
			"duration": 2.5,
			"segments": [{"id": 0, "text": " hello there", "start": 0, "end": 2.5, "avg_logprob": -0.2}]
		}`))
	})

	resp, err := p.Recognize(context.Background(), &provider.RecognitionRequest{
		Audio:       []byte("RIFF"),
		Format:      "wav",
		Temperature: 0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, "verbose_json", form["response_format"])
	assert.Equal(t, "0.30", form["temperature"])
	assert.Equal(t, "en", form["language"])
	assert.Equal(t, "audio.wav", filename)
	assert.Equal(t, []byte("RIFF"), audio)

	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, 2500*time.Millisecond, resp.Duration)
	require.Len(t, resp.Segments, 1)
	assert.InDelta(t, math.Exp(-0.2), resp.Segments[0].Probability, 1e-9)
}

func TestWhisperServerProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		kind      provider.ErrorKind
		transport bool
	}{
		{"server busy", http.StatusServiceUnavailable, "busy", provider.KindServiceUnavailable, true},
		{"bad upload", http.StatusBadRequest, "bad file", provider.KindInvalidAudio, false},
		{"error field on 200", http.StatusOK, `{"error": "failed to read WAV file"}`, provider.KindInvalidAudio, false},
		{"unparseable body", http.StatusOK, `not json`, provider.KindServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.Recognize(context.Background(), &provider.RecognitionRequest{Audio: []byte("x"), Format: "wav"})
			var te *provider.TranscriptionError
			require.True(t, errors.As(err, &te), "got %T: %v", err, err)
			assert.Equal(t, tt.kind, te.Kind)
			assert.Equal(t, tt.transport, te.IsTransport())
		})
	}
}

func TestWhisperServerProvider_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	p := NewWhisperServerProvider(WhisperServerConfig{BaseURL: url})
	_, err := p.Recognize(context.Background(), &provider.RecognitionRequest{Audio: []byte("x")})

	var te *provider.TranscriptionError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.IsTransport())
}

func TestWhisperServerProvider_Cancelled(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := p.Recognize(ctx, &provider.RecognitionRequest{Audio: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWhisperServerProvider_EmptyAudio(t *testing.T) {
	p := NewWhisperServerProvider(WhisperServerConfig{BaseURL: "http://localhost:1"})
	_, err := p.Recognize(context.Background(), &provider.RecognitionRequest{})

	var te *provider.TranscriptionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, provider.KindInvalidAudio, te.Kind)
}

func TestWhisperServerProvider_ValidateConfiguration(t *testing.T) {
	assert.Error(t, NewWhisperServerProvider(WhisperServerConfig{}).ValidateConfiguration())
	assert.Error(t, NewWhisperServerProvider(WhisperServerConfig{BaseURL: "localhost:8080"}).ValidateConfiguration())
	assert.NoError(t, NewWhisperServerProvider(WhisperServerConfig{BaseURL: "http://localhost:8080"}).ValidateConfiguration())
}

func TestRegisteredCreator(t *testing.T) {
	_, err := provider.CreateRecognizer(providerName, provider.Settings{})
	assert.Error(t, err)

	r, err := provider.CreateRecognizer(providerName, provider.Settings{BaseURL: "http://gpu-box:8080"})
	require.NoError(t, err)
	assert.Equal(t, providerName, r.GetProviderInfo().Name)
	assert.Equal(t, 100, r.GetProviderInfo().MaxFileSizeMB)
}
