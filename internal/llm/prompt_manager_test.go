package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/diff-warden/internal/core"
)

func TestPromptManager_EmbeddedPrompts(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	for _, key := range []PromptKey{
		SecurityPrompt, CodeQualityPrompt, TypoPrompt, FindingsFormatPrompt,
		SummaryPrompt, ShellPrompt, PoemPrompt, ToolsPrompt,
	} {
		_, err := pm.Get(key, DefaultProvider)
		assert.NoError(t, err, "missing prompt %s", key)
	}
}

func TestPromptManager_ProviderFallback(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)
	require.NoError(t, pm.register(SummaryPrompt, "gemini", "gemini summary"))

	out, err := pm.Render(SummaryPrompt, "gemini", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini summary", out)

	out, err = pm.Render(SummaryPrompt, "ollama", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "senior application security engineer")

	_, err = pm.Get("nope", DefaultProvider)
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestPromptManager_RenderTemplates(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	out, err := pm.Render(PoemPrompt, DefaultProvider, map[string]string{"Form": "haiku"})
	require.NoError(t, err)
	assert.Contains(t, out, "DevSecOps themed haiku poem")

	out, err = pm.Render(ToolsPrompt, DefaultProvider, []core.Tool{{Name: "read_file", Description: "Read a file"}})
	require.NoError(t, err)
	assert.Contains(t, out, "- read_file: Read a file")
}

func TestParsePromptName(t *testing.T) {
	id, err := parsePromptName("findings_format_default.prompt")
	require.NoError(t, err)
	assert.Equal(t, FindingsFormatPrompt, id.key)
	assert.Equal(t, DefaultProvider, id.provider)

	for _, bad := range []string{"summary.prompt", "_default.prompt", "summary_.prompt"} {
		_, err := parsePromptName(bad)
		assert.Error(t, err, bad)
	}
}
