package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptRules_Apply(t *testing.T) {
	tests := []struct {
		name  string
		rules *PromptRules
		want  string
	}{
		{"nil rules", nil, "base"},
		{"empty rules", &PromptRules{}, "base"},
		{"pre and post", &PromptRules{Pre: "A ", Post: " Z"}, "A base Z"},
		{"override wins", &PromptRules{Override: "custom", Pre: "A", Post: "Z"}, "custom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rules.Apply("base"))
		})
	}
}

func TestLoadPromptRules(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		rules, err := LoadPromptRules(filepath.Join(dir, "none.rules"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
		require.NotNil(t, rules)
		assert.Equal(t, "x", rules.Apply("x"))
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "ok.rules")
		require.NoError(t, os.WriteFile(path, []byte("PROMPT_PRE: \"Focus on auth. \"\nPROMPT_POST: \" Be brief.\"\n"), 0o600))

		rules, err := LoadPromptRules(path)
		require.NoError(t, err)
		assert.Equal(t, "Focus on auth. X Be brief.", rules.Apply("X"))
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.rules")
		require.NoError(t, os.WriteFile(path, []byte("PROMPT_PRE: [unclosed\n"), 0o600))

		_, err := LoadPromptRules(path)
		assert.ErrorIs(t, err, ErrConfigParsing)
	})
}
