package audio

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
	"take-my-dictation/internal/app/testutil"
)

type stubProber struct {
	desc  model.AudioDescriptor
	err   error
	calls int
}

func (s *stubProber) Probe(_ context.Context, _ []byte) (model.AudioDescriptor, error) {
	s.calls++
	return s.desc, s.err
}

func TestWAVProbe_Probe(t *testing.T) {
	raw := testutil.ToneWAV(t, testutil.WAVSpec{Seconds: 2, SampleRate: 16000, Channels: 2, Amplitude: 0.5})

	desc, err := NewWAVProbe().Probe(context.Background(), raw)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, desc.DurationSeconds, 1e-9)
	assert.Equal(t, 16000, desc.SampleRateHz)
	assert.Equal(t, 2, desc.Channels)
	assert.Equal(t, FormatWAV, desc.ContainerFormat)
	assert.Equal(t, int64(len(raw)), desc.SizeBytes)
	// A sine at half scale sits about 9 dB below full scale.
	assert.InDelta(t, -9.03, desc.LoudnessDbfs, 0.1)
}

func TestWAVProbe_Silence(t *testing.T) {
	raw := testutil.ToneWAV(t, testutil.WAVSpec{Seconds: 1, Amplitude: 0})
	desc, err := NewWAVProbe().Probe(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, SilenceFloorDbfs, desc.LoudnessDbfs)
}

func TestWAVProbe_InvalidData(t *testing.T) {
	_, err := NewWAVProbe().Probe(context.Background(), []byte("definitely not a wav file"))
	assert.Error(t, err)
}

func TestWAVProbe_SpansManyChunks(t *testing.T) {
	raw := testutil.ToneWAV(t, testutil.WAVSpec{Seconds: 1.3, SampleRate: 22050, Amplitude: 0.5})
	desc, err := NewWAVProbe().Probe(context.Background(), raw)
	require.NoError(t, err)
	assert.InDelta(t, 28665.0/22050.0, desc.DurationSeconds, 1e-9)
	assert.InDelta(t, -9.03, desc.LoudnessDbfs, 0.1)
}

func TestWAVProbe_ProbeWithin(t *testing.T) {
	raw := testutil.SpeechLikeWAV(t, 3)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	// Too long by header: answered without decoding, so cancellation never bites.
	desc, err := NewWAVProbe().ProbeWithin(cancelled, raw, DurationBounds{MinSeconds: 1, MaxSeconds: 2})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, desc.DurationSeconds, 1e-9)
	assert.Zero(t, desc.LoudnessDbfs)

	_, err = NewWAVProbe().ProbeWithin(cancelled, raw, DefaultDurationBounds())
	assert.ErrorIs(t, err, context.Canceled)

	desc, err = NewWAVProbe().ProbeWithin(context.Background(), raw, DefaultDurationBounds())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, desc.DurationSeconds, 1e-9)
	assert.InDelta(t, -9.03, desc.LoudnessDbfs, 0.1)
}

func TestCharacteristicsAnalyzer_Analyze(t *testing.T) {
	ctx := context.Background()
	bounds := DefaultDurationBounds()

	t.Run("wav within bounds", func(t *testing.T) {
		fallback := &stubProber{}
		analyzer := NewCharacteristicsAnalyzer(nil, fallback, nil)
		raw := testutil.SpeechLikeWAV(t, 3)

		desc, err := analyzer.Analyze(ctx, raw, "recording.mp3", bounds)
		require.NoError(t, err)
		assert.Equal(t, FormatWAV, desc.ContainerFormat, "magic bytes win over the hint")
		assert.InDelta(t, 3.0, desc.DurationSeconds, 1e-9)
		assert.Zero(t, fallback.calls)
	})

	t.Run("exactly one second is accepted", func(t *testing.T) {
		analyzer := NewCharacteristicsAnalyzer(nil, nil, nil)
		desc, err := analyzer.Analyze(ctx, testutil.SpeechLikeWAV(t, 1), "", bounds)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, desc.DurationSeconds, 1e-9)
	})

	t.Run("too short", func(t *testing.T) {
		analyzer := NewCharacteristicsAnalyzer(nil, nil, nil)
		_, err := analyzer.Analyze(ctx, testutil.SpeechLikeWAV(t, 0.5), "", bounds)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidAudio))
		assert.Contains(t, err.Error(), "too short")
	})

	t.Run("too long wav is rejected from its header", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		analyzer := NewCharacteristicsAnalyzer(nil, nil, nil)
		_, err := analyzer.Analyze(cancelled, testutil.SpeechLikeWAV(t, 3), "", DurationBounds{MinSeconds: 1, MaxSeconds: 2})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidAudio))
		assert.Contains(t, err.Error(), "too long")
	})

	t.Run("too long via fallback prober", func(t *testing.T) {
		fallback := &stubProber{desc: model.AudioDescriptor{DurationSeconds: 7200.5, SampleRateHz: 44100, Channels: 2}}
		analyzer := NewCharacteristicsAnalyzer(nil, fallback, nil)
		_, err := analyzer.Analyze(ctx, []byte("ID3\x03\x00fake mp3"), "", bounds)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidAudio))
		assert.Contains(t, err.Error(), "too long")
		assert.Equal(t, 1, fallback.calls)
	})

	t.Run("fallback fills descriptor and keeps sniffed format", func(t *testing.T) {
		fallback := &stubProber{desc: model.AudioDescriptor{DurationSeconds: 45, SampleRateHz: 44100, Channels: 2, ContainerFormat: "mp4", LoudnessDbfs: -20}}
		analyzer := NewCharacteristicsAnalyzer(nil, fallback, nil)
		raw := append([]byte{0, 0, 0, 0x20}, []byte("ftypM4A \x00\x00\x00\x00")...)

		desc, err := analyzer.Analyze(ctx, raw, "", bounds)
		require.NoError(t, err)
		assert.Equal(t, FormatM4A, desc.ContainerFormat)
		assert.Equal(t, int64(len(raw)), desc.SizeBytes)
		assert.Equal(t, -20.0, desc.LoudnessDbfs)
	})

	t.Run("undecodable", func(t *testing.T) {
		fallback := &stubProber{err: fmt.Errorf("moov atom not found")}
		analyzer := NewCharacteristicsAnalyzer(nil, fallback, nil)
		_, err := analyzer.Analyze(ctx, []byte{1, 2, 3, 4}, "m4a", bounds)
		require.Error(t, err)

		var invalid *errors.InvalidAudioError
		require.True(t, errors.As(err, &invalid))
		assert.Contains(t, invalid.Reason, "m4a")
	})

	t.Run("empty payload", func(t *testing.T) {
		analyzer := NewCharacteristicsAnalyzer(nil, nil, nil)
		_, err := analyzer.Analyze(ctx, nil, "wav", bounds)
		assert.True(t, errors.Is(err, errors.ErrInvalidAudio))
	})

	t.Run("non wav without fallback", func(t *testing.T) {
		analyzer := NewCharacteristicsAnalyzer(nil, nil, nil)
		_, err := analyzer.Analyze(ctx, []byte("OggS....."), "", bounds)
		assert.True(t, errors.Is(err, errors.ErrInvalidAudio))
	})

	t.Run("cancelled analysis surfaces the context error", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		fallback := &stubProber{err: fmt.Errorf("signal: killed")}
		analyzer := NewCharacteristicsAnalyzer(nil, fallback, nil)
		_, err := analyzer.Analyze(cctx, []byte("OggS....."), "", bounds)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
