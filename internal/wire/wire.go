//go:build wireinject
// +build wireinject

package wire

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/diff-warden/internal/app"
	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/llm"
	"github.com/sevigo/diff-warden/internal/pipeline"
	"github.com/sevigo/diff-warden/internal/storage"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(AppSet)
	return &app.App{}, nil, nil
}

func InitializeScanner(ctx context.Context, cfg *config.Config, source core.SourceProvider, logger *slog.Logger) (*pipeline.Pipeline, error) {
	wire.Build(ScannerSet)
	return &pipeline.Pipeline{}, nil
}

func InitializeAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.Analyzer, error) {
	wire.Build(llm.NewPromptManager, provideAnalyzer)
	return nil, nil
}

func InitializeStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	wire.Build(provideStore)
	return nil, nil, nil
}
