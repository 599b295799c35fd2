package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"take-my-dictation/internal/app/api/provider"
	"take-my-dictation/internal/app/audio"
	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
)

// Preprocessor turns analyzed audio into the payload sent to the recognizer.
type Preprocessor interface {
	Prepare(ctx context.Context, ws *audio.Workspace, raw []byte, desc model.AudioDescriptor, c audio.Constraints) (audio.Processed, error)
}

// Pipeline is the entry point for one transcription request:
// analyze, preprocess, then run the temperature sweep.
type Pipeline struct {
	analyzer      audio.Analyzer
	preprocessor  Preprocessor
	orchestrator  *Orchestrator
	capabilities  provider.CapabilityProvider
	config        *Config
	workspaceRoot string
	metrics       *Metrics
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithWorkspaceRoot places per-request scratch directories under root.
func WithWorkspaceRoot(root string) Option {
	return func(p *Pipeline) { p.workspaceRoot = root }
}

// WithPipelineClock replaces time.Now for total elapsed time.
func WithPipelineClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithPipelineMetrics counts rejected requests on m.
func WithPipelineMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func New(
	analyzer audio.Analyzer,
	preprocessor Preprocessor,
	orchestrator *Orchestrator,
	capabilities provider.CapabilityProvider,
	config *Config,
	logger *zap.Logger,
	opts ...Option,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		analyzer:     analyzer,
		preprocessor: preprocessor,
		orchestrator: orchestrator,
		capabilities: capabilities,
		config:       config,
		logger:       logger,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run transcribes raw audio. It returns exactly one of: a result (accepted,
// fallback or failed), an InvalidAudioError, a TranscriptionUnavailableError,
// or the caller's context error. The request's scratch workspace is removed
// on every path.
func (p *Pipeline) Run(ctx context.Context, raw []byte, containerHint string, bounds audio.DurationBounds) (result model.TranscriptionResult, err error) {
	requestID := p.newID()
	logger := p.logger.With(zap.String("request_id", requestID))
	start := p.now()

	state := StateIdle
	enter := func(next State) {
		if !CanTransition(state, next) {
			logger.DPanic("invalid pipeline transition", zap.Stringer("from", state), zap.Stringer("to", next))
		}
		logger.Debug("pipeline state", zap.Stringer("from", state), zap.Stringer("to", next))
		state = next
	}

	defer func() {
		switch {
		case err == nil:
			logger.Info("transcription finished",
				zap.Stringer("outcome", result.Outcome()),
				zap.Int("attempts", result.Summary().AttemptsMade),
				zap.Int64("elapsed_ms", result.Summary().TotalElapsedMs),
				zap.Strings("warnings", result.Summary().Warnings),
			)
		case errors.Is(err, errors.ErrInvalidAudio):
			p.metrics.observeError("invalid_audio")
			logger.Warn("audio rejected", zap.Error(err))
		case errors.Is(err, errors.ErrTranscriptionUnavailable):
			p.metrics.observeError("unavailable")
			logger.Error("transcription unavailable", zap.Error(err))
		default:
			p.metrics.observeError("canceled")
			logger.Info("transcription aborted", zap.Error(err))
		}
	}()

	enter(StateAnalyzing)
	if bounds == (audio.DurationBounds{}) {
		bounds = p.config.DurationBounds()
	}
	desc, err := p.analyzer.Analyze(ctx, raw, containerHint, bounds)
	if err != nil {
		return nil, p.fail(enter, err)
	}

	enter(StatePreprocessing)
	ws, err := audio.NewWorkspace(p.workspaceRoot)
	if err != nil {
		enter(StateFailed)
		return nil, err
	}
	defer func() {
		if releaseErr := ws.Release(); releaseErr != nil {
			logger.Warn("failed to release audio workspace", zap.String("dir", ws.Dir()), zap.Error(releaseErr))
		}
	}()

	caps := p.capabilities.Capabilities()
	processed, err := p.preprocessor.Prepare(ctx, ws, raw, desc, audio.Constraints{
		SupportedFormats:   caps.SupportedFormats,
		MaxPayloadBytes:    caps.MaxPayloadBytes,
		QuietThresholdDbfs: p.config.QuietThresholdDbfs(),
	})
	if err != nil {
		return nil, p.fail(enter, err)
	}
	if processed.Adjustment != audio.AdjustNone {
		logger.Info("audio preprocessed",
			zap.Stringer("adjustment", processed.Adjustment),
			zap.Int("input_bytes", len(raw)),
			zap.Int("output_bytes", len(processed.Audio)),
		)
	}

	result, err = p.orchestrator.Transcribe(ctx, Job{
		Audio:           processed.Audio,
		Format:          processed.Format,
		DurationSeconds: desc.DurationSeconds,
		Warnings:        processed.Warnings,
		Start:           start,
		observe:         enter,
	})
	if err != nil {
		return nil, p.fail(enter, err)
	}
	return result, nil
}

func (p *Pipeline) fail(enter func(State), err error) error {
	if errors.Is(err, errors.ErrInvalidAudio) {
		enter(StateInvalidAudio)
	} else {
		enter(StateFailed)
	}
	return err
}
