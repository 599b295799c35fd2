package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
)

// Adjustment is the single preprocessing step applied to a payload.
type Adjustment int

const (
	AdjustNone Adjustment = iota
	AdjustCompress
	AdjustConvertFormat
	AdjustNormalizeVolume
)

func (a Adjustment) String() string {
	switch a {
	case AdjustNone:
		return "none"
	case AdjustCompress:
		return "compress"
	case AdjustConvertFormat:
		return "convert_format"
	case AdjustNormalizeVolume:
		return "normalize_volume"
	default:
		return fmt.Sprintf("Adjustment(%d)", int(a))
	}
}

// Constraints describe what the recognizer accepts and when audio counts as quiet.
type Constraints struct {
	SupportedFormats   []string
	MaxPayloadBytes    int64
	QuietThresholdDbfs float64
}

// Supports reports whether format is accepted by the recognizer
func (c Constraints) Supports(format string) bool {
	return lo.Contains(c.SupportedFormats, strings.ToLower(format))
}

// DecidePreprocessing picks at most one adjustment, in priority order: size,
// then format, then loudness.
func DecidePreprocessing(desc model.AudioDescriptor, c Constraints) Adjustment {
	switch {
	case c.MaxPayloadBytes > 0 && desc.SizeBytes > c.MaxPayloadBytes:
		return AdjustCompress
	case !c.Supports(desc.ContainerFormat):
		return AdjustConvertFormat
	case desc.LoudnessDbfs < c.QuietThresholdDbfs:
		return AdjustNormalizeVolume
	default:
		return AdjustNone
	}
}

// PreprocessOptions controls the transcoding targets.
type PreprocessOptions struct {
	CompressionTargetBytes int64
	MinBitrateKbps         int
	MaxBitrateKbps         int
	ConvertBitrateKbps     int
}

func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		CompressionTargetBytes: 20 << 20,
		MinBitrateKbps:         64,
		MaxBitrateKbps:         128,
		ConvertBitrateKbps:     128,
	}
}

// Processed is the payload handed to the recognizer.
type Processed struct {
	Audio      []byte
	Format     string
	Adjustment Adjustment
	Warnings   []string
}

// Engine applies the decided adjustment through a Transcoder.
type Engine struct {
	transcoder Transcoder
	opts       PreprocessOptions
	logger     *zap.Logger
}

func NewEngine(transcoder Transcoder, opts PreprocessOptions, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{transcoder: transcoder, opts: opts, logger: logger}
}

// Prepare returns the payload to submit. Transcoder scratch files live in ws.
// Compression or conversion failures are fatal because the recognizer would
// reject the original; a failed normalization falls back to the original audio.
func (e *Engine) Prepare(ctx context.Context, ws *Workspace, raw []byte, desc model.AudioDescriptor, c Constraints) (Processed, error) {
	adjustment := DecidePreprocessing(desc, c)
	original := Processed{Audio: raw, Format: desc.ContainerFormat, Adjustment: AdjustNone}
	if adjustment == AdjustNone {
		return original, nil
	}
	if e.transcoder == nil {
		if adjustment == AdjustNormalizeVolume {
			return original, nil
		}
		return Processed{}, errors.InvalidAudio("audio needs %s but no transcoder is configured", adjustment)
	}

	job := e.jobFor(adjustment, desc)
	e.logger.Info("preprocessing audio",
		zap.Stringer("adjustment", adjustment),
		zap.String("input_format", desc.ContainerFormat),
		zap.String("output_format", job.OutputFormat),
		zap.Int("bitrate_kbps", job.BitrateKbps),
		zap.Int64("size_bytes", desc.SizeBytes),
	)

	out, err := e.transcode(ctx, ws, raw, desc.ContainerFormat, job)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Processed{}, ctxErr
		}
		if adjustment == AdjustNormalizeVolume {
			e.logger.Warn("volume normalization failed, using original audio", zap.Error(err))
			original.Warnings = []string{"volume normalization failed; original audio used"}
			return original, nil
		}
		return Processed{}, errors.InvalidAudioCause(err, "%s failed", adjustment)
	}

	if c.MaxPayloadBytes > 0 && int64(len(out)) > c.MaxPayloadBytes {
		return Processed{}, errors.InvalidAudio("audio is %d bytes after %s, recognizer limit is %d", len(out), adjustment, c.MaxPayloadBytes)
	}

	return Processed{
		Audio:      out,
		Format:     job.OutputFormat,
		Adjustment: adjustment,
		Warnings:   []string{"audio preprocessed: " + adjustment.String()},
	}, nil
}

func (e *Engine) jobFor(adjustment Adjustment, desc model.AudioDescriptor) TranscodeJob {
	switch adjustment {
	case AdjustCompress:
		return TranscodeJob{
			OutputFormat: FormatMP3,
			BitrateKbps:  e.compressionBitrate(desc.DurationSeconds),
			Channels:     1,
		}
	case AdjustConvertFormat:
		return TranscodeJob{OutputFormat: FormatMP3, BitrateKbps: e.opts.ConvertBitrateKbps}
	default:
		return TranscodeJob{OutputFormat: desc.ContainerFormat, Normalize: true}
	}
}

// compressionBitrate aims the output at the target size, clamped to the
// configured bitrate range.
func (e *Engine) compressionBitrate(durationSeconds float64) int {
	if durationSeconds <= 0 {
		return e.opts.MinBitrateKbps
	}
	kbps := int(float64(e.opts.CompressionTargetBytes) * 8 / 1000 / durationSeconds)
	return lo.Clamp(kbps, e.opts.MinBitrateKbps, e.opts.MaxBitrateKbps)
}

func (e *Engine) transcode(ctx context.Context, ws *Workspace, raw []byte, inFormat string, job TranscodeJob) ([]byte, error) {
	inPath, err := ws.WriteFile("input."+extensionFor(inFormat), raw)
	if err != nil {
		return nil, err
	}
	outName := "output." + extensionFor(job.OutputFormat)
	if err := e.transcoder.Transcode(ctx, inPath, ws.Path(outName), job); err != nil {
		return nil, err
	}
	return ws.ReadFile(outName)
}

func extensionFor(format string) string {
	if format == "" {
		return "bin"
	}
	return format
}
