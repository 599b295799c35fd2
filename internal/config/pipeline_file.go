package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"take-my-dictation/internal/app/api/provider"
	"take-my-dictation/internal/app/audio"
	"take-my-dictation/internal/app/pipeline"
	"take-my-dictation/internal/app/quality"
)

// PipelineFile is the YAML document behind `dictate`. Durations are written
// as Go duration strings ("2s", "500ms").
type PipelineFile struct {
	Recognizer    RecognizerSection    `yaml:"recognizer"`
	Retry         RetrySection         `yaml:"retry"`
	Scoring       ScoringSection       `yaml:"scoring"`
	Preprocessing PreprocessingSection `yaml:"preprocessing"`
	Duration      DurationSection      `yaml:"duration"`
	Storage       StorageSection       `yaml:"storage"`
}

// RecognizerSection selects and configures the speech recognizer
type RecognizerSection struct {
	Provider         string            `yaml:"provider" validate:"required,oneof=openai whisper_server"`
	Model            string            `yaml:"model,omitempty"`
	APIKey           string            `yaml:"api_key,omitempty"`
	BaseURL          string            `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Language         string            `yaml:"language,omitempty" validate:"omitempty,min=2,max=8"`
	Prompt           string            `yaml:"prompt,omitempty"`
	Timeout          time.Duration     `yaml:"timeout" validate:"gte=0"`
	MaxPayloadMB     int               `yaml:"max_payload_mb" validate:"gte=1,lte=1024"`
	SupportedFormats []string          `yaml:"supported_formats" validate:"required,min=1,dive,required"`
	RateLimitRPM     int               `yaml:"rate_limit_rpm" validate:"gte=0"`
	Workers          int               `yaml:"workers" validate:"gte=1,lte=32"`
	Headers          map[string]string `yaml:"headers,omitempty"`
}

// RetrySection configures the temperature sweep and transport backoff
type RetrySection struct {
	Parameters             []float32     `yaml:"parameters" validate:"required,min=1,dive,gte=0,lte=1"`
	MaxAttempts            int           `yaml:"max_attempts" validate:"gte=1"`
	AcceptanceThreshold    float64       `yaml:"acceptance_threshold" validate:"gte=0,lte=1"`
	LowConfidenceThreshold float64       `yaml:"low_confidence_threshold" validate:"gte=0,lte=1"`
	BackoffMaxTries        uint          `yaml:"backoff_max_tries" validate:"gte=1,lte=10"`
	BackoffInitial         time.Duration `yaml:"backoff_initial" validate:"gt=0"`
	BackoffMax             time.Duration `yaml:"backoff_max" validate:"gt=0"`
	BackoffMultiplier      float64       `yaml:"backoff_multiplier" validate:"gte=1"`
	AttemptTimeoutFloor    time.Duration `yaml:"attempt_timeout_floor" validate:"gt=0"`
	AttemptTimeoutPerSec   time.Duration `yaml:"attempt_timeout_per_second" validate:"gte=0"`
}

// ScoringSection holds the confidence score weights and thresholds
type ScoringSection struct {
	RepetitionPenalty     float64 `yaml:"repetition_penalty" validate:"gte=0,lte=1"`
	LowDiversityPenalty   float64 `yaml:"low_diversity_penalty" validate:"gte=0,lte=1"`
	LowDiversityThreshold float64 `yaml:"low_diversity_threshold" validate:"gte=0,lte=1"`
	GarbledPenalty        float64 `yaml:"garbled_penalty" validate:"gte=0,lte=1"`
	GarbledThreshold      float64 `yaml:"garbled_threshold" validate:"gte=0,lte=1"`
	SegmentWeight         float64 `yaml:"segment_weight" validate:"gte=0,lte=1"`
	NGramMinOccurrences   int     `yaml:"ngram_min_occurrences" validate:"gte=2"`
}

// PreprocessingSection holds the preprocessing triggers and transcoding targets
type PreprocessingSection struct {
	QuietThresholdDbfs     float64 `yaml:"quiet_threshold_dbfs" validate:"lte=0"`
	CompressionTargetBytes int64   `yaml:"compression_target_bytes" validate:"gt=0"`
	MinBitrateKbps         int     `yaml:"min_bitrate_kbps" validate:"gte=8"`
	MaxBitrateKbps         int     `yaml:"max_bitrate_kbps" validate:"gtefield=MinBitrateKbps"`
	ConvertBitrateKbps     int     `yaml:"convert_bitrate_kbps" validate:"gte=8"`
	FFmpegPath             string  `yaml:"ffmpeg_path"`
	FFprobePath            string  `yaml:"ffprobe_path"`
}

// DurationSection bounds the accepted audio length in seconds
type DurationSection struct {
	MinSeconds float64 `yaml:"min_seconds" validate:"gt=0"`
	MaxSeconds float64 `yaml:"max_seconds" validate:"gtfield=MinSeconds"`
}

// StorageSection locates the result database used by the CLI. The sqlite
// driver uses DatabasePath; postgres uses the lib/pq connection string in DSN.
type StorageSection struct {
	Driver       string `yaml:"driver" validate:"required,oneof=sqlite postgres"`
	DatabasePath string `yaml:"database_path" validate:"required_if=Driver sqlite"`
	DSN          string `yaml:"dsn,omitempty" validate:"required_if=Driver postgres"`
}

// DefaultPipelineFile returns the defaults written by `dictate config init`
func DefaultPipelineFile() *PipelineFile {
	return DefaultPipelineFileFor("openai")
}

// DefaultPipelineFileFor returns the defaults for the named recognizer.
// An empty name means openai.
func DefaultPipelineFileFor(providerType string) *PipelineFile {
	if providerType == "" {
		providerType = "openai"
	}
	s := pipeline.DefaultSettings()
	defaults := GetProviderDefaults(providerType)

	recognizer := RecognizerSection{
		Provider:         providerType,
		Timeout:          defaults.Timeout,
		MaxPayloadMB:     defaults.MaxPayloadMB,
		SupportedFormats: defaults.SupportedFormats,
		RateLimitRPM:     defaults.RateLimitRPM,
		Workers:          defaults.Workers,
	}
	switch providerType {
	case "openai":
		recognizer.Model = "whisper-1"
		recognizer.APIKey = "${" + EnvOpenAIKey + "}"
	case "whisper_server":
		recognizer.BaseURL = "${" + EnvWhisperServerURL + "}"
	}

	return &PipelineFile{
		Recognizer: recognizer,
		Retry: RetrySection{
			Parameters:             s.Parameters,
			MaxAttempts:            s.MaxAttempts,
			AcceptanceThreshold:    s.AcceptanceThreshold,
			LowConfidenceThreshold: s.LowConfidenceThreshold,
			BackoffMaxTries:        s.Backoff.MaxTries,
			BackoffInitial:         s.Backoff.InitialInterval,
			BackoffMax:             s.Backoff.MaxInterval,
			BackoffMultiplier:      s.Backoff.Multiplier,
			AttemptTimeoutFloor:    s.AttemptTimeoutFloor,
			AttemptTimeoutPerSec:   s.AttemptTimeoutPerSecond,
		},
		Scoring: ScoringSection{
			RepetitionPenalty:     s.Scorer.RepetitionPenalty,
			LowDiversityPenalty:   s.Scorer.LowDiversityPenalty,
			LowDiversityThreshold: s.Scorer.LowDiversityThreshold,
			GarbledPenalty:        s.Scorer.GarbledPenalty,
			GarbledThreshold:      s.Scorer.GarbledThreshold,
			SegmentWeight:         s.Scorer.SegmentWeight,
			NGramMinOccurrences:   s.Detector.MinOccurrences,
		},
		Preprocessing: PreprocessingSection{
			QuietThresholdDbfs:     s.QuietThresholdDbfs,
			CompressionTargetBytes: s.Preprocess.CompressionTargetBytes,
			MinBitrateKbps:         s.Preprocess.MinBitrateKbps,
			MaxBitrateKbps:         s.Preprocess.MaxBitrateKbps,
			ConvertBitrateKbps:     s.Preprocess.ConvertBitrateKbps,
			FFmpegPath:             "ffmpeg",
			FFprobePath:            "ffprobe",
		},
		Duration: DurationSection{
			MinSeconds: s.DurationBounds.MinSeconds,
			MaxSeconds: s.DurationBounds.MaxSeconds,
		},
		Storage: StorageSection{
			Driver:       "sqlite",
			DatabasePath: filepath.Join(defaultConfigDir(), "results.db"),
		},
	}
}

// LoadPipelineFile reads, expands and validates a pipeline file. Sections
// missing from the document keep their defaults.
func LoadPipelineFile(configPath string) (*PipelineFile, error) {
	configPath = os.ExpandEnv(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run `dictate config init`)", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var head struct {
		Recognizer struct {
			Provider string `yaml:"provider"`
		} `yaml:"recognizer"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	file := DefaultPipelineFileFor(head.Recognizer.Provider)
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	file.expandEnvironmentVariables()

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return file, nil
}

// LoadOrDefault loads configPath, or, when no file exists there, the defaults
// for whichever recognizer the environment points at.
func LoadOrDefault(configPath string) (*PipelineFile, error) {
	if _, err := os.Stat(os.ExpandEnv(configPath)); !os.IsNotExist(err) {
		return LoadPipelineFile(configPath)
	}

	providerType := "openai"
	if os.Getenv(EnvOpenAIKey) == "" && os.Getenv(EnvWhisperServerURL) != "" {
		providerType = "whisper_server"
	}
	file := DefaultPipelineFileFor(providerType)
	file.expandEnvironmentVariables()
	err := file.Validate()
	if err == nil && providerType == "openai" {
		err = RequireOpenAIKey(&APIKeys{OpenAI: file.Recognizer.APIKey})
	}
	if err != nil {
		return nil, fmt.Errorf("no config file at %s and the environment defaults are incomplete: %w", configPath, err)
	}
	return file, nil
}

// SavePipelineFile writes the file as YAML, creating the directory if needed
func SavePipelineFile(file *PipelineFile, configPath string) error {
	configPath = os.ExpandEnv(configPath)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (f *PipelineFile) expandEnvironmentVariables() {
	f.Recognizer.APIKey = expandEnv(f.Recognizer.APIKey)
	f.Recognizer.BaseURL = expandEnv(f.Recognizer.BaseURL)
	for key, value := range f.Recognizer.Headers {
		f.Recognizer.Headers[key] = expandEnv(value)
	}
	f.Storage.DatabasePath = os.ExpandEnv(f.Storage.DatabasePath)
	f.Storage.DSN = expandEnv(f.Storage.DSN)
}

// PipelineSettings converts the file into pipeline settings
func (f *PipelineFile) PipelineSettings() pipeline.Settings {
	detector := quality.DefaultDetectorOptions()
	detector.MinOccurrences = f.Scoring.NGramMinOccurrences

	return pipeline.Settings{
		Parameters:             append([]float32(nil), f.Retry.Parameters...),
		MaxAttempts:            f.Retry.MaxAttempts,
		AcceptanceThreshold:    f.Retry.AcceptanceThreshold,
		LowConfidenceThreshold: f.Retry.LowConfidenceThreshold,
		Backoff: pipeline.BackoffSettings{
			MaxTries:        f.Retry.BackoffMaxTries,
			InitialInterval: f.Retry.BackoffInitial,
			MaxInterval:     f.Retry.BackoffMax,
			Multiplier:      f.Retry.BackoffMultiplier,
		},
		AttemptTimeoutFloor:     f.Retry.AttemptTimeoutFloor,
		AttemptTimeoutPerSecond: f.Retry.AttemptTimeoutPerSec,
		Language:                f.Recognizer.Language,
		Prompt:                  f.Recognizer.Prompt,
		DurationBounds: audio.DurationBounds{
			MinSeconds: f.Duration.MinSeconds,
			MaxSeconds: f.Duration.MaxSeconds,
		},
		QuietThresholdDbfs: f.Preprocessing.QuietThresholdDbfs,
		Preprocess: audio.PreprocessOptions{
			CompressionTargetBytes: f.Preprocessing.CompressionTargetBytes,
			MinBitrateKbps:         f.Preprocessing.MinBitrateKbps,
			MaxBitrateKbps:         f.Preprocessing.MaxBitrateKbps,
			ConvertBitrateKbps:     f.Preprocessing.ConvertBitrateKbps,
		},
		Detector: detector,
		Scorer: quality.ScorerOptions{
			RepetitionPenalty:     f.Scoring.RepetitionPenalty,
			LowDiversityPenalty:   f.Scoring.LowDiversityPenalty,
			LowDiversityThreshold: f.Scoring.LowDiversityThreshold,
			GarbledPenalty:        f.Scoring.GarbledPenalty,
			GarbledThreshold:      f.Scoring.GarbledThreshold,
			SegmentWeight:         f.Scoring.SegmentWeight,
		},
	}
}

// RecognizerSettings returns what provider.CreateRecognizer needs
func (f *PipelineFile) RecognizerSettings() provider.Settings {
	return provider.Settings{
		APIKey:   f.Recognizer.APIKey,
		Model:    f.Recognizer.Model,
		BaseURL:  f.Recognizer.BaseURL,
		Language: f.Recognizer.Language,
		Prompt:   f.Recognizer.Prompt,
		Timeout:  f.Recognizer.Timeout,
		Headers:  f.Recognizer.Headers,
	}
}

// Capabilities is the static description of the configured recognizer
func (f *PipelineFile) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportedFormats: append([]string(nil), f.Recognizer.SupportedFormats...),
		MaxPayloadBytes:  int64(f.Recognizer.MaxPayloadMB) << 20,
	}
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return filepath.Join(defaultConfigDir(), "pipeline.yaml")
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".take-my-dictation"
	}
	return filepath.Join(home, ".take-my-dictation")
}
