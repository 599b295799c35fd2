// Package cli holds the state shared by all dictate subcommands.
package cli

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"take-my-dictation/internal/app/audio"
	"take-my-dictation/internal/config"
)

// Options are the root command's persistent flags.
var Options struct {
	Verbose    bool
	JSONLogs   bool
	ConfigPath string
}

var (
	loggerOnce sync.Once
	logger     *zap.Logger
)

// Logger returns the process logger, built on first use from the flags.
// Logs go to stderr so stdout carries only results.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		var cfg zap.Config
		if Options.JSONLogs {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			cfg.DisableStacktrace = true
		}
		level := zapcore.InfoLevel
		if Options.Verbose {
			level = zapcore.DebugLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(level)

		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}

// Sync flushes the logger if one was built.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// LoadConfig reads the pipeline file named by --config, falling back to
// environment defaults when it does not exist.
func LoadConfig() (*config.PipelineFile, error) {
	return config.LoadOrDefault(Options.ConfigPath)
}

// WriteJSON prints v indented, followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Bounds overrides the configured duration bounds with any non-zero flag.
func Bounds(file *config.PipelineFile, minSeconds, maxSeconds float64) audio.DurationBounds {
	bounds := audio.DurationBounds{MinSeconds: file.Duration.MinSeconds, MaxSeconds: file.Duration.MaxSeconds}
	if minSeconds > 0 {
		bounds.MinSeconds = minSeconds
	}
	if maxSeconds > 0 {
		bounds.MaxSeconds = maxSeconds
	}
	return bounds
}
