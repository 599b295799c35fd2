package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"take-my-dictation/internal/app/api/provider"
	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
	"take-my-dictation/internal/app/quality"
)

// Job is one request's processed audio handed to the orchestrator.
type Job struct {
	Audio           []byte
	Format          string
	DurationSeconds float64
	// Warnings raised before the sweep, carried into the result.
	Warnings []string
	// Start is when the request began; zero means the sweep start.
	Start time.Time

	observe func(State)
}

func (j Job) enter(s State) {
	if j.observe != nil {
		j.observe(s)
	}
}

// Orchestrator runs the temperature sweep against a recognizer. Attempts are
// strictly sequential; transport failures are retried with exponential
// backoff without consuming a sweep attempt.
type Orchestrator struct {
	recognizer provider.Recognizer
	config     *Config
	detector   *quality.RepetitionDetector
	scorer     *quality.ConfidenceScorer
	metrics    *Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// OrchestratorOption customizes an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithClock replaces time.Now, so elapsed times can be made deterministic.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// WithMetrics records outcomes and retries on m.
func WithMetrics(m *Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

func NewOrchestrator(recognizer provider.Recognizer, config *Config, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		recognizer: recognizer,
		config:     config,
		detector:   quality.NewRepetitionDetector(config.DetectorOptions()),
		scorer:     quality.NewConfidenceScorer(config.ScorerOptions()),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Transcribe returns exactly one result, or an error: an InvalidAudioError
// when the recognizer rejects the audio, a TranscriptionUnavailableError when
// transport retries run out, or the context error on cancellation.
func (o *Orchestrator) Transcribe(ctx context.Context, job Job) (model.TranscriptionResult, error) {
	start := job.Start
	if start.IsZero() {
		start = o.now()
	}

	var attempts []model.TranscriptionAttempt
	decision := DecisionContinue
	calls := 0

	for i, param := range o.config.Parameters() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("transcription cancelled before attempt %d: %w", i+1, err)
		}

		o.logger.Info("starting attempt",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", o.config.MaxAttempts()),
			zap.Float32("temperature", param),
		)

		job.enter(StateAttempting)
		attempt, n, err := o.attempt(ctx, job, i, param)
		calls += n
		if err != nil {
			return nil, o.classify(ctx, err, calls)
		}
		// A response that lands after the caller gave up is dropped.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("transcription cancelled: %w", err)
		}
		attempts = append(attempts, attempt)
		job.enter(StateEvaluating)
		o.metrics.observeScore(attempt.Assessment.ConfidenceScore)

		decision = o.config.Decide(attempt.Assessment, i)
		o.logger.Info("attempt evaluated",
			zap.Int("attempt", i+1),
			zap.Float32("temperature", param),
			zap.Float64("confidence", attempt.Assessment.ConfidenceScore),
			zap.Stringer("quality", attempt.Assessment.QualityLevel),
			zap.Bool("repetition", attempt.Assessment.RepetitionDetected),
			zap.Strings("flags", attempt.Assessment.Flags),
			zap.Stringer("decision", decision),
		)
		if decision != DecisionContinue {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transcription cancelled: %w", err)
	}
	result := assembleResult(o.config, assembly{
		attempts:  attempts,
		decision:  decision,
		warnings:  job.Warnings,
		elapsedMs: o.now().Sub(start).Milliseconds(),
	})
	o.metrics.observeResult(result)
	job.enter(stateForOutcome(result.Outcome()))
	return result, nil
}

// attempt makes one sweep attempt, retrying transport failures. It returns the
// number of recognizer calls made.
func (o *Orchestrator) attempt(ctx context.Context, job Job, index int, param float32) (model.TranscriptionAttempt, int, error) {
	request := &provider.RecognitionRequest{
		Audio:       job.Audio,
		Format:      job.Format,
		Language:    o.config.Language(),
		Prompt:      o.config.Prompt(),
		Temperature: param,
	}
	timeout := o.config.AttemptTimeout(job.DurationSeconds)
	started := o.now()
	calls := 0

	operation := func() (*provider.RecognitionResponse, error) {
		calls++
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := o.recognizer.Recognize(callCtx, request)
		if err == nil {
			if resp == nil {
				return nil, backoff.Permanent(fmt.Errorf("recognizer returned no response"))
			}
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, backoff.Permanent(ctxErr)
		}
		if isTransport(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	settings := o.config.Backoff()
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = settings.InitialInterval
	policy.MaxInterval = settings.MaxInterval
	policy.Multiplier = settings.Multiplier
	policy.RandomizationFactor = 0

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(settings.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			kind := provider.KindOf(err)
			o.metrics.observeRetry(string(kind))
			o.logger.Warn("transport failure, backing off",
				zap.Int("attempt", index+1),
				zap.Int("call", calls),
				zap.String("kind", string(kind)),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return model.TranscriptionAttempt{}, calls, err
	}

	probs := resp.SegmentProbabilities()
	rep := o.detector.Detect(resp.Text)
	return model.TranscriptionAttempt{
		AttemptIndex:         index,
		ParameterValue:       param,
		Text:                 resp.Text,
		Language:             resp.Language,
		SegmentProbabilities: probs,
		ElapsedMs:            o.now().Sub(started).Milliseconds(),
		Assessment:           o.scorer.Score(resp.Text, rep, probs),
	}, calls, nil
}

// classify maps a failed attempt onto the pipeline's error taxonomy.
func (o *Orchestrator) classify(ctx context.Context, err error, calls int) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("transcription cancelled: %w", ctxErr)
	}
	var te *provider.TranscriptionError
	if errors.As(err, &te) && te.Kind == provider.KindInvalidAudio {
		return errors.InvalidAudioCause(err, "recognizer rejected the audio")
	}
	o.logger.Error("recognizer unavailable", zap.Int("calls", calls), zap.Error(err))
	return &errors.TranscriptionUnavailableError{Attempts: calls, Cause: err}
}

// isTransport reports whether err should be retried with backoff. A bare
// deadline comes from the per-attempt timeout, since the caller's context
// was checked first.
func isTransport(err error) bool {
	var te *provider.TranscriptionError
	if errors.As(err, &te) {
		return te.IsTransport()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
