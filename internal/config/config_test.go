package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.AI.LLMProvider)
	assert.Equal(t, "gemma3:latest", cfg.AI.GeneratorModel)
	assert.Equal(t, 10, cfg.AI.RateLimit)
	assert.Equal(t, 5*time.Minute, cfg.AI.RequestTimeout)
	assert.Equal(t, 1000, cfg.Scan.MaxLineLength)
	assert.Equal(t, []string{"security"}, cfg.Scan.Analysts)
	assert.Equal(t, "results.csv", cfg.Output.CSVPath)
	assert.Equal(t, "127.0.0.1", cfg.Output.WebHost)
	assert.Equal(t, 8080, cfg.Output.WebPort)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "warn", cfg.LoggerConfig.Level)
}

func TestLoad_GeminiDefaultModel(t *testing.T) {
	v := newTestViper()
	v.Set("ai.llm_provider", "Gemini")
	v.Set("ai.gemini_api_key", "key")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.AI.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.GeneratorModel)
}

func TestAIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  AIConfig
		wantErr bool
	}{
		{
			name:    "Valid ollama",
			config:  AIConfig{LLMProvider: "ollama", RateLimit: 10},
			wantErr: false,
		},
		{
			name:    "Fake provider needs nothing",
			config:  AIConfig{LLMProvider: "faike", RateLimit: 1},
			wantErr: false,
		},
		{
			name:    "Unsupported provider",
			config:  AIConfig{LLMProvider: "openai", RateLimit: 10},
			wantErr: true,
		},
		{
			name:    "Gemini without key",
			config:  AIConfig{LLMProvider: "gemini", RateLimit: 10},
			wantErr: true,
		},
		{
			name:    "Zero rate limit",
			config:  AIConfig{LLMProvider: "ollama", RateLimit: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("AIConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForServer(t *testing.T) {
	cfg, err := Load(newTestViper())
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateForServer())

	cfg.GitHub.AppID = 1
	cfg.GitHub.WebhookSecret = "s"
	assert.NoError(t, cfg.ValidateForServer())
}

func TestNewViper_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  rate_limit: 3\nscan:\n  analysts: [security, typo]\n"), 0o600))
	t.Setenv("DW_AI_LLM_PROVIDER", "faike")

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.AI.RateLimit)
	assert.Equal(t, "faike", cfg.AI.LLMProvider)
	assert.Equal(t, []string{"security", "typo"}, cfg.Scan.Analysts)
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigParsing)
}
