package pipeline

import (
	"math"
	"time"

	"take-my-dictation/internal/app/audio"
	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/model"
	"take-my-dictation/internal/app/quality"
)

// DefaultParameters is the temperature sweep. The first values suit ordinary
// speech; the later ones are there to break decoding loops.
var DefaultParameters = []float32{0.2, 0.0, 0.4, 0.3, 0.6}

// BackoffSettings bounds the transport retry around a single attempt.
type BackoffSettings struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// Settings is the mutable input to NewConfig.
type Settings struct {
	Parameters             []float32
	MaxAttempts            int
	AcceptanceThreshold    float64
	LowConfidenceThreshold float64

	Backoff BackoffSettings

	// Each recognizer call gets AttemptTimeoutFloor plus
	// AttemptTimeoutPerSecond for every second of audio.
	AttemptTimeoutFloor     time.Duration
	AttemptTimeoutPerSecond time.Duration

	Language string
	Prompt   string

	DurationBounds     audio.DurationBounds
	QuietThresholdDbfs float64
	Preprocess         audio.PreprocessOptions
	Detector           quality.DetectorOptions
	Scorer             quality.ScorerOptions
}

// DefaultSettings returns the calibrated production defaults
func DefaultSettings() Settings {
	return Settings{
		Parameters:             append([]float32(nil), DefaultParameters...),
		MaxAttempts:            len(DefaultParameters),
		AcceptanceThreshold:    0.8,
		LowConfidenceThreshold: 0.3,
		Backoff: BackoffSettings{
			MaxTries:        3,
			InitialInterval: 2 * time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
		},
		AttemptTimeoutFloor:     30 * time.Second,
		AttemptTimeoutPerSecond: 500 * time.Millisecond,
		DurationBounds:          audio.DefaultDurationBounds(),
		QuietThresholdDbfs:      -30,
		Preprocess:              audio.DefaultPreprocessOptions(),
		Detector:                quality.DefaultDetectorOptions(),
		Scorer:                  quality.DefaultScorerOptions(),
	}
}

// Config is the validated, read-only pipeline configuration. Accessors return
// copies, so a Config can be shared by concurrent pipelines.
type Config struct {
	s Settings
}

// NewConfig validates s and freezes a private copy of it.
func NewConfig(s Settings) (*Config, error) {
	if len(s.Parameters) == 0 {
		return nil, errors.Wrap(errors.RequiredField("parameters"), "invalid pipeline config")
	}
	for _, p := range s.Parameters {
		if p < 0 || p > 1 || math.IsNaN(float64(p)) {
			return nil, errors.Wrap(errors.OutOfRange("parameters", 0, 1), "invalid pipeline config")
		}
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = len(s.Parameters)
	}
	if s.MaxAttempts > len(s.Parameters) {
		return nil, errors.Wrap(errors.InvalidField("max_attempts", "exceeds the number of parameters"), "invalid pipeline config")
	}
	if s.AcceptanceThreshold < 0 || s.AcceptanceThreshold > 1 {
		return nil, errors.Wrap(errors.OutOfRange("acceptance_threshold", 0, 1), "invalid pipeline config")
	}
	if s.LowConfidenceThreshold < 0 || s.LowConfidenceThreshold > 1 {
		return nil, errors.Wrap(errors.OutOfRange("low_confidence_threshold", 0, 1), "invalid pipeline config")
	}
	if s.Backoff.MaxTries == 0 {
		return nil, errors.Wrap(errors.RequiredField("backoff.max_tries"), "invalid pipeline config")
	}
	if s.Backoff.Multiplier < 1 {
		return nil, errors.Wrap(errors.InvalidField("backoff.multiplier", "must be at least 1"), "invalid pipeline config")
	}
	if s.AttemptTimeoutFloor <= 0 {
		return nil, errors.Wrap(errors.RequiredField("attempt_timeout_floor"), "invalid pipeline config")
	}
	if s.DurationBounds.MinSeconds <= 0 || s.DurationBounds.MaxSeconds < s.DurationBounds.MinSeconds {
		return nil, errors.Wrap(errors.InvalidField("duration_bounds", "min must be positive and not above max"), "invalid pipeline config")
	}

	s.Parameters = append([]float32(nil), s.Parameters...)
	s.Detector = quality.NewRepetitionDetector(s.Detector).Options()
	return &Config{s: s}, nil
}

// MustConfig is NewConfig for known-good settings such as the defaults.
func MustConfig(s Settings) *Config {
	c, err := NewConfig(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Parameters returns the sweep, truncated to MaxAttempts.
func (c *Config) Parameters() []float32 {
	return append([]float32(nil), c.s.Parameters[:c.s.MaxAttempts]...)
}

func (c *Config) MaxAttempts() int                           { return c.s.MaxAttempts }
func (c *Config) AcceptanceThreshold() float64               { return c.s.AcceptanceThreshold }
func (c *Config) LowConfidenceThreshold() float64            { return c.s.LowConfidenceThreshold }
func (c *Config) Backoff() BackoffSettings                   { return c.s.Backoff }
func (c *Config) Language() string                           { return c.s.Language }
func (c *Config) Prompt() string                             { return c.s.Prompt }
func (c *Config) DurationBounds() audio.DurationBounds       { return c.s.DurationBounds }
func (c *Config) PreprocessOptions() audio.PreprocessOptions { return c.s.Preprocess }
func (c *Config) ScorerOptions() quality.ScorerOptions       { return c.s.Scorer }

func (c *Config) QuietThresholdDbfs() float64 { return c.s.QuietThresholdDbfs }

func (c *Config) DetectorOptions() quality.DetectorOptions {
	return quality.NewRepetitionDetector(c.s.Detector).Options()
}

// Settings returns a copy of the settings the Config was built from.
func (c *Config) Settings() Settings {
	s := c.s
	s.Parameters = c.Parameters()
	s.Detector = c.DetectorOptions()
	return s
}

// AttemptTimeout is the deadline for one recognizer call on audio of the given length.
func (c *Config) AttemptTimeout(durationSeconds float64) time.Duration {
	if durationSeconds < 0 || math.IsNaN(durationSeconds) {
		durationSeconds = 0
	}
	return c.s.AttemptTimeoutFloor + time.Duration(durationSeconds*float64(c.s.AttemptTimeoutPerSecond))
}

// Decision is the outcome of evaluating one attempt.
type Decision int

const (
	DecisionContinue Decision = iota
	DecisionAccept
	DecisionFallback
)

func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionFallback:
		return "fallback"
	default:
		return "continue"
	}
}

// Decide is a pure function of the assessment and the zero-based attempt
// index. An attempt is accepted when it clears the threshold without
// repetition; otherwise the sweep continues until the last attempt, which
// triggers the fallback selection.
func (c *Config) Decide(qa model.QualityAssessment, attemptIndex int) Decision {
	if qa.QualityLevel != model.QualityFailed &&
		qa.ConfidenceScore >= c.s.AcceptanceThreshold &&
		!qa.RepetitionDetected {
		return DecisionAccept
	}
	if attemptIndex+1 >= c.s.MaxAttempts {
		return DecisionFallback
	}
	return DecisionContinue
}
