package audio

import (
	"context"
	"math"

	"go.uber.org/zap"

	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
)

// Prober measures one container family.
type Prober interface {
	Probe(ctx context.Context, raw []byte) (model.AudioDescriptor, error)
}

// BoundedProber can skip decoding audio whose header already puts it out of
// bounds.
type BoundedProber interface {
	ProbeWithin(ctx context.Context, raw []byte, bounds DurationBounds) (model.AudioDescriptor, error)
}

// DurationBounds is the accepted duration range in seconds, inclusive.
type DurationBounds struct {
	MinSeconds float64
	MaxSeconds float64
}

// DefaultDurationBounds accepts one second up to two hours.
func DefaultDurationBounds() DurationBounds {
	return DurationBounds{MinSeconds: 1, MaxSeconds: 7200}
}

// Analyzer produces an AudioDescriptor for a raw payload.
type Analyzer interface {
	Analyze(ctx context.Context, raw []byte, containerHint string, bounds DurationBounds) (model.AudioDescriptor, error)
}

// CharacteristicsAnalyzer dispatches WAV payloads to the in-process decoder and
// everything else to the fallback prober.
type CharacteristicsAnalyzer struct {
	wav      Prober
	fallback Prober
	logger   *zap.Logger
}

// NewCharacteristicsAnalyzer wires the analyzer. fallback may be nil, in which
// case only WAV input can be analyzed.
func NewCharacteristicsAnalyzer(wav Prober, fallback Prober, logger *zap.Logger) *CharacteristicsAnalyzer {
	if wav == nil {
		wav = NewWAVProbe()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CharacteristicsAnalyzer{wav: wav, fallback: fallback, logger: logger}
}

// Analyze fails with an InvalidAudioError when the payload cannot be decoded
// or its duration falls outside bounds.
func (a *CharacteristicsAnalyzer) Analyze(ctx context.Context, raw []byte, containerHint string, bounds DurationBounds) (model.AudioDescriptor, error) {
	if len(raw) == 0 {
		return model.AudioDescriptor{}, errors.InvalidAudio("empty audio payload")
	}

	format := SniffContainer(raw)
	if format == "" {
		format = NormalizeContainerHint(containerHint)
	}

	var (
		desc model.AudioDescriptor
		err  error
	)
	switch {
	case format == FormatWAV:
		if bounded, ok := a.wav.(BoundedProber); ok {
			desc, err = bounded.ProbeWithin(ctx, raw, bounds)
		} else {
			desc, err = a.wav.Probe(ctx, raw)
		}
	case a.fallback != nil:
		desc, err = a.fallback.Probe(ctx, raw)
	default:
		return model.AudioDescriptor{}, errors.InvalidAudio("cannot analyze %q audio without ffprobe", format)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.AudioDescriptor{}, ctxErr
		}
		return model.AudioDescriptor{}, errors.InvalidAudioCause(err, "cannot decode %s audio", displayFormat(format))
	}

	if format != "" {
		desc.ContainerFormat = format
	}
	desc.SizeBytes = int64(len(raw))

	if math.IsNaN(desc.DurationSeconds) || desc.DurationSeconds < bounds.MinSeconds {
		return model.AudioDescriptor{}, errors.InvalidAudio("audio too short: %.2fs (minimum %.0fs)", desc.DurationSeconds, bounds.MinSeconds)
	}
	if desc.DurationSeconds > bounds.MaxSeconds {
		return model.AudioDescriptor{}, errors.InvalidAudio("audio too long: %.0fs (maximum %.0fs)", desc.DurationSeconds, bounds.MaxSeconds)
	}

	a.logger.Debug("audio analyzed",
		zap.String("format", desc.ContainerFormat),
		zap.Float64("duration_seconds", desc.DurationSeconds),
		zap.Int("sample_rate_hz", desc.SampleRateHz),
		zap.Int("channels", desc.Channels),
		zap.Int64("size_bytes", desc.SizeBytes),
		zap.Float64("loudness_dbfs", desc.LoudnessDbfs),
	)
	return desc, nil
}

func displayFormat(format string) string {
	if format == "" {
		return "unknown"
	}
	return format
}
