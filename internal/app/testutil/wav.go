package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSpec describes a synthetic 16-bit PCM tone.
type WAVSpec struct {
	Seconds    float64
	SampleRate int
	Channels   int
	// Amplitude is the peak level as a fraction of full scale; 0 is silence.
	Amplitude float64
	Frequency float64
}

// ToneWAV renders spec as WAV bytes. The encoder needs a seekable writer, so
// the file is written under t.TempDir() and read back.
func ToneWAV(t testing.TB, spec WAVSpec) []byte {
	t.Helper()
	if spec.SampleRate == 0 {
		spec.SampleRate = 16000
	}
	if spec.Channels == 0 {
		spec.Channels = 1
	}
	if spec.Frequency == 0 {
		spec.Frequency = 440
	}

	frames := int(math.Round(spec.Seconds * float64(spec.SampleRate)))
	data := make([]int, 0, frames*spec.Channels)
	for i := 0; i < frames; i++ {
		v := spec.Amplitude * 32767 * math.Sin(2*math.Pi*spec.Frequency*float64(i)/float64(spec.SampleRate))
		for c := 0; c < spec.Channels; c++ {
			data = append(data, int(math.Round(v)))
		}
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav fixture: %v", err)
	}
	enc := wav.NewEncoder(f, spec.SampleRate, 16, spec.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: spec.Channels, SampleRate: spec.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav fixture: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav fixture: %v", err)
	}
	return raw
}

// SpeechLikeWAV is a one-channel tone loud enough to skip normalization.
func SpeechLikeWAV(t testing.TB, seconds float64) []byte {
	return ToneWAV(t, WAVSpec{Seconds: seconds, Amplitude: 0.5})
}
