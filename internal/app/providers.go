package app

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"take-my-dictation/internal/app/api/provider"
	"take-my-dictation/internal/app/audio"
	"take-my-dictation/internal/app/pipeline"
	"take-my-dictation/internal/app/repository"
	"take-my-dictation/internal/app/repository/pg"
	"take-my-dictation/internal/app/repository/sqlite"
	"take-my-dictation/internal/config"

	// Recognizer adapters register themselves with the provider registry.
	_ "take-my-dictation/internal/app/api/openai/whisper"
	_ "take-my-dictation/internal/app/api/whisper_server"
)

// Application is everything a CLI command needs to transcribe audio.
type Application struct {
	Config     *config.PipelineFile
	Pipeline   *pipeline.Pipeline
	Recognizer provider.Recognizer
	Registry   *prometheus.Registry
}

func provideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func provideProviderMetrics(reg prometheus.Registerer) *provider.Metrics {
	return provider.NewMetrics(reg)
}

func providePipelineMetrics(reg prometheus.Registerer) *pipeline.Metrics {
	return pipeline.NewMetrics(reg)
}

// provideRecognizer builds the configured adapter, counted by metrics and
// limited to the configured request rate.
func provideRecognizer(file *config.PipelineFile, metrics *provider.Metrics) (provider.Recognizer, error) {
	recognizer, err := provider.CreateRecognizer(file.Recognizer.Provider, file.RecognizerSettings())
	if err != nil {
		return nil, err
	}
	return provider.NewRateLimited(provider.Instrument(recognizer, metrics), file.Recognizer.RateLimitRPM), nil
}

func providePipelineConfig(file *config.PipelineFile) (*pipeline.Config, error) {
	return pipeline.NewConfig(file.PipelineSettings())
}

func provideCapabilities(file *config.PipelineFile) provider.CapabilityProvider {
	return provider.StaticCapabilities(file.Capabilities())
}

func provideAnalyzer(file *config.PipelineFile, logger *zap.Logger) audio.Analyzer {
	probe := audio.NewFFProbe(os.TempDir(), nil).
		WithBinaries(file.Preprocessing.FFprobePath, file.Preprocessing.FFmpegPath)
	return audio.NewCharacteristicsAnalyzer(audio.NewWAVProbe(), probe, logger)
}

func providePreprocessor(file *config.PipelineFile, cfg *pipeline.Config, logger *zap.Logger) pipeline.Preprocessor {
	transcoder := audio.NewFFmpegTranscoder(file.Preprocessing.FFmpegPath, nil)
	return audio.NewEngine(transcoder, cfg.PreprocessOptions(), logger)
}

func provideOrchestrator(recognizer provider.Recognizer, cfg *pipeline.Config, metrics *pipeline.Metrics, logger *zap.Logger) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(recognizer, cfg, logger, pipeline.WithMetrics(metrics))
}

func providePipeline(
	analyzer audio.Analyzer,
	preprocessor pipeline.Preprocessor,
	orchestrator *pipeline.Orchestrator,
	capabilities provider.CapabilityProvider,
	cfg *pipeline.Config,
	metrics *pipeline.Metrics,
	logger *zap.Logger,
) *pipeline.Pipeline {
	return pipeline.New(analyzer, preprocessor, orchestrator, capabilities, cfg, logger,
		pipeline.WithPipelineMetrics(metrics))
}

// provideResultStore opens the configured result database; the cleanup
// closes it.
func provideResultStore(ctx context.Context, file *config.PipelineFile) (*repository.ResultStore, func(), error) {
	var (
		store *repository.ResultStore
		err   error
	)
	switch file.Storage.Driver {
	case "postgres":
		store, err = pg.Open(ctx, file.Storage.DSN)
	default:
		store, err = sqlite.Open(ctx, file.Storage.DatabasePath)
	}
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
