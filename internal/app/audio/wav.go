package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"take-my-dictation/internal/app/model"
)

// SilenceFloorDbfs is reported for digital silence instead of -Inf.
const SilenceFloorDbfs = -120.0

// pcmChunkFrames is how many frames are decoded at a time while measuring.
const pcmChunkFrames = 8192

// WAVProbe measures PCM WAV payloads in-process.
type WAVProbe struct{}

func NewWAVProbe() *WAVProbe {
	return &WAVProbe{}
}

// Probe streams the PCM data in fixed-size chunks to measure duration and
// RMS loudness.
func (p *WAVProbe) Probe(ctx context.Context, raw []byte) (model.AudioDescriptor, error) {
	return p.ProbeWithin(ctx, raw, DurationBounds{})
}

// ProbeWithin is Probe, except that when the header alone shows the audio is
// longer than bounds.MaxSeconds the PCM data is not decoded: the descriptor
// carries the header duration and no loudness.
func (p *WAVProbe) ProbeWithin(ctx context.Context, raw []byte, bounds DurationBounds) (model.AudioDescriptor, error) {
	decoder := wav.NewDecoder(bytes.NewReader(raw))
	if !decoder.IsValidFile() {
		return model.AudioDescriptor{}, fmt.Errorf("not a valid WAV file")
	}
	decoder.ReadInfo()
	if err := decoder.Err(); err != nil {
		return model.AudioDescriptor{}, fmt.Errorf("failed to read WAV header: %w", err)
	}
	if decoder.SampleRate == 0 || decoder.NumChans == 0 || decoder.BitDepth == 0 {
		return model.AudioDescriptor{}, fmt.Errorf("WAV header has zero sample rate, channels or bit depth")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return model.AudioDescriptor{}, fmt.Errorf("failed to find PCM data: %w", err)
	}

	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	bitDepth := int(decoder.BitDepth)
	desc := model.AudioDescriptor{
		SampleRateHz:    sampleRate,
		Channels:        channels,
		ContainerFormat: FormatWAV,
		SizeBytes:       int64(len(raw)),
	}

	// Streaming writers leave a placeholder data size; only a size that fits
	// in the payload is trusted.
	if pcmLen := decoder.PCMLen(); bounds.MaxSeconds > 0 && pcmLen > 0 && pcmLen <= int64(len(raw)) {
		bytesPerFrame := int64(channels * ((bitDepth + 7) / 8))
		headerSeconds := float64(pcmLen/bytesPerFrame) / float64(sampleRate)
		if headerSeconds > bounds.MaxSeconds {
			desc.DurationSeconds = headerSeconds
			return desc, nil
		}
	}

	samples, loudness, err := measurePCM(ctx, decoder, channels, bitDepth)
	if err != nil {
		return model.AudioDescriptor{}, err
	}
	desc.DurationSeconds = float64(samples/channels) / float64(sampleRate)
	desc.LoudnessDbfs = loudness
	return desc, nil
}

// measurePCM decodes the remaining PCM data chunk by chunk and returns the
// sample count and RMS level relative to full scale for bitDepth.
func measurePCM(ctx context.Context, decoder *wav.Decoder, channels, bitDepth int) (int, float64, error) {
	fullScale := math.Pow(2, float64(bitDepth-1))
	midpoint := 0.0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned with a 128 midpoint.
		fullScale, midpoint = 128, 128
	}

	buf := &goaudio.IntBuffer{Data: make([]int, pcmChunkFrames*channels)}
	var (
		sum     float64
		samples int
	)
	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		n, err := decoder.PCMBuffer(buf)
		if err != nil && err != io.EOF {
			return 0, 0, fmt.Errorf("failed to decode PCM data: %w", err)
		}
		if n <= 0 {
			break
		}
		for _, s := range buf.Data[:n] {
			v := float64(s) - midpoint
			sum += v * v
		}
		samples += n
		if err == io.EOF {
			break
		}
	}

	if samples == 0 || sum == 0 {
		return samples, SilenceFloorDbfs, nil
	}
	rms := math.Sqrt(sum / float64(samples))
	return samples, math.Max(SilenceFloorDbfs, 20*math.Log10(rms/fullScale)), nil
}
