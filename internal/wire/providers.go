// Package wire builds the object graphs of the server and the CLI.
package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/diff-warden/internal/app"
	"github.com/sevigo/diff-warden/internal/cache"
	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/db"
	"github.com/sevigo/diff-warden/internal/filter"
	"github.com/sevigo/diff-warden/internal/github"
	"github.com/sevigo/diff-warden/internal/jobs"
	"github.com/sevigo/diff-warden/internal/llm"
	"github.com/sevigo/diff-warden/internal/logger"
	"github.com/sevigo/diff-warden/internal/pipeline"
	"github.com/sevigo/diff-warden/internal/server"
	"github.com/sevigo/diff-warden/internal/storage"
)

// ScannerSet builds a pipeline for a source from a loaded configuration.
var ScannerSet = wire.NewSet(
	llm.NewPromptManager,
	provideAnalyzer,
	provideFilterRules,
	provideCacheStore,
	providePromptRules,
	providePipelineOptions,
	pipeline.New,
)

// AppSet builds the webhook server.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	provideLogger,
	provideStore,
	github.NewInstallationClientFactory,
	llm.NewPromptManager,
	provideAnalyzer,
	provideFilterRules,
	provideCacheStore,
	providePromptRules,
	providePipelineOptions,
	providePipelineFactory,
	provideScanJob,
	provideDispatcher,
	wire.Bind(new(core.JobDispatcher), new(*jobs.Dispatcher)),
)

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(cfg.LoggerConfig, nil)
}

func newOllamaHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: timeout,
	}
}

func provideGeneratorLLM(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	switch cfg.AI.LLMProvider {
	case "gemini":
		if cfg.AI.GeminiAPIKey == "" {
			return nil, errors.New("gemini API key is not set")
		}
		return gemini.New(ctx, gemini.WithModel(cfg.AI.GeneratorModel), gemini.WithAPIKey(cfg.AI.GeminiAPIKey))
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithHTTPClient(newOllamaHTTPClient(cfg.AI.RequestTimeout)),
			ollama.WithModel(cfg.AI.GeneratorModel),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.AI.LLMProvider)
	}
}

// provideAnalyzer returns the offline analyzer for the "faike" provider and a
// model-backed analyzer otherwise.
func provideAnalyzer(ctx context.Context, cfg *config.Config, prompts *llm.PromptManager, logger *slog.Logger) (core.Analyzer, error) {
	if cfg.AI.LLMProvider == llm.FakeProvider {
		return llm.NewFake(), nil
	}
	model, err := provideGeneratorLLM(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator LLM: %w", err)
	}
	return llm.NewAnalyzer(cfg.AI.LLMProvider, llm.FromModel(model), prompts, logger,
		llm.WithTimeout(cfg.AI.RequestTimeout),
	), nil
}

func provideFilterRules(cfg *config.Config) (*filter.Rules, error) {
	return filter.Load(cfg.Scan.IncludeFile, cfg.Scan.IgnoreFile, cfg.Scan.Include, cfg.Scan.Exclude)
}

func provideCacheStore(cfg *config.Config, logger *slog.Logger) (cache.Store, error) {
	if cfg.Scan.DisableCaching {
		return cache.Noop{}, nil
	}
	fileCache, err := cache.NewFileCache(cfg.Scan.CacheDir, logger)
	if err != nil {
		return nil, err
	}
	return fileCache, nil
}

// providePromptRules treats a missing rules file as no rules.
func providePromptRules(cfg *config.Config) (*config.PromptRules, error) {
	rules, err := config.LoadPromptRules(cfg.Scan.RulesFile)
	if errors.Is(err, config.ErrConfigNotFound) {
		return rules, nil
	}
	return rules, err
}

func providePipelineOptions(cfg *config.Config, rules *config.PromptRules) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Analysts = cfg.Scan.Analysts
	opts.DisableTools = cfg.AI.DisableTools
	opts.MaxLineLength = cfg.Scan.MaxLineLength
	opts.SkipLineLengthCheck = cfg.Scan.SkipLineLengthCheck
	opts.RateLimit = cfg.AI.RateLimit
	opts.PromptRules = rules
	return opts
}

func providePipelineFactory(
	analyzer core.Analyzer,
	prompts *llm.PromptManager,
	rules *filter.Rules,
	store cache.Store,
	opts pipeline.Options,
	logger *slog.Logger,
) jobs.PipelineFactory {
	return func(source core.SourceProvider) (*pipeline.Pipeline, error) {
		return pipeline.New(source, analyzer, prompts, rules, store, opts, logger)
	}
}

// provideStore connects to PostgreSQL when a database is configured. Without one the
// server runs without scan history.
func provideStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	conn, cleanup, err := db.NewDatabase(cfg.Database, logger)
	if errors.Is(err, db.ErrNotConfigured) {
		logger.Warn("no database configured, scan history is disabled")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return storage.NewStore(conn.DB), cleanup, nil
}

func provideScanJob(
	clients github.InstallationClientFactory,
	newPipeline jobs.PipelineFactory,
	store storage.Store,
	cfg *config.Config,
	logger *slog.Logger,
) *jobs.ScanJob {
	return jobs.NewScanJob(clients, newPipeline, store, cfg.AI.LLMProvider, logger)
}

func provideDispatcher(job *jobs.ScanJob, cfg *config.Config, logger *slog.Logger) *jobs.Dispatcher {
	return jobs.NewDispatcher(job, cfg.MaxWorkers, jobs.DefaultJobTimeout, logger)
}
