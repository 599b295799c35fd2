//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"take-my-dictation/internal/app/repository"
	"take-my-dictation/internal/config"
)

var pipelineSet = wire.NewSet(
	provideRegistry,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	provideProviderMetrics,
	providePipelineMetrics,
	provideRecognizer,
	providePipelineConfig,
	provideCapabilities,
	provideAnalyzer,
	providePreprocessor,
	provideOrchestrator,
	providePipeline,
	wire.Struct(new(Application), "*"),
)

// InitializeApplication builds the transcription pipeline described by file.
func InitializeApplication(file *config.PipelineFile, logger *zap.Logger) (*Application, error) {
	wire.Build(pipelineSet)
	return &Application{}, nil
}

// InitializeResultStore opens the configured result database.
func InitializeResultStore(ctx context.Context, file *config.PipelineFile) (*repository.ResultStore, func(), error) {
	wire.Build(provideResultStore)
	return nil, nil, nil
}
