package wire

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/diff-warden/internal/cache"
	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/llm"
	"github.com/sevigo/diff-warden/internal/scm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AI: config.AIConfig{LLMProvider: llm.FakeProvider, RateLimit: 2},
		Scan: config.ScanConfig{
			CacheDir:      filepath.Join(dir, "cache"),
			MaxLineLength: 500,
			IncludeFile:   filepath.Join(dir, "missing.include"),
			IgnoreFile:    filepath.Join(dir, "missing.ignore"),
			RulesFile:     filepath.Join(dir, "missing.rules"),
			Analysts:      []string{"security"},
		},
	}
}

func TestProvideAnalyzer_Fake(t *testing.T) {
	prompts, err := llm.NewPromptManager()
	require.NoError(t, err)

	analyzer, err := provideAnalyzer(context.Background(), testConfig(t), prompts, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, llm.FakeProvider, analyzer.Name())
}

func TestProvideAnalyzer_Unsupported(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.LLMProvider = "openai"
	prompts, err := llm.NewPromptManager()
	require.NoError(t, err)

	_, err = provideAnalyzer(context.Background(), cfg, prompts, slog.Default())
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestProvideCacheStore(t *testing.T) {
	cfg := testConfig(t)
	store, err := provideCacheStore(cfg, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &cache.FileCache{}, store)

	cfg.Scan.DisableCaching = true
	store, err = provideCacheStore(cfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, cache.Noop{}, store)
}

func TestProvidePromptRules(t *testing.T) {
	cfg := testConfig(t)
	rules, err := providePromptRules(cfg)
	require.NoError(t, err, "a missing rules file means no rules")
	assert.Equal(t, "x", rules.Apply("x"))

	require.NoError(t, os.WriteFile(cfg.Scan.RulesFile, []byte("PROMPT_PRE: \"be strict. \"\n"), 0o600))
	rules, err = providePromptRules(cfg)
	require.NoError(t, err)
	assert.Equal(t, "be strict. x", rules.Apply("x"))
}

func TestProvidePipelineOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.DisableTools = true
	cfg.Scan.SkipLineLengthCheck = true
	cfg.Scan.Analysts = []string{"security", "codequality"}

	opts := providePipelineOptions(cfg, nil)
	assert.Equal(t, []string{"security", "codequality"}, opts.Analysts)
	assert.True(t, opts.DisableTools)
	assert.True(t, opts.SkipLineLengthCheck)
	assert.Equal(t, 500, opts.MaxLineLength)
	assert.Equal(t, 2, opts.RateLimit)
}

func TestProvideStore_NoDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database = &config.DBConfig{}

	store, cleanup, err := provideStore(cfg, slog.Default())
	require.NoError(t, err)
	assert.Nil(t, store)
	cleanup()
}

func TestInitializeScanner(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("items = []\n"), 0o600))

	var source core.SourceProvider = scm.NewFilesystem(dir, "", nil, slog.Default())
	p, err := InitializeScanner(context.Background(), cfg, source, slog.Default())
	require.NoError(t, err)

	result, err := p.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Analyzed)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "app.py", result.Findings[0].File)
}
