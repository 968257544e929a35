package llm

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

// ModelProvider selects a provider-specific prompt variant.
type ModelProvider string

// PromptKey names a prompt task.
type PromptKey string

const (
	DefaultProvider ModelProvider = "default"

	SecurityPrompt       PromptKey = "security"
	CodeQualityPrompt    PromptKey = "codequality"
	TypoPrompt           PromptKey = "typo"
	FindingsFormatPrompt PromptKey = "findings_format"
	SummaryPrompt        PromptKey = "summary"
	ShellPrompt          PromptKey = "shell"
	PoemPrompt           PromptKey = "poem"
	ToolsPrompt          PromptKey = "tools"
)

// ErrPromptNotFound is returned when neither the provider nor the default variant exists.
var ErrPromptNotFound = errors.New("prompt not found")

type promptID struct {
	key      PromptKey
	provider ModelProvider
}

// PromptManager renders the embedded prompts. A file named <key>_<provider>.prompt
// is the variant of key for provider; <key>_default.prompt serves everyone else.
type PromptManager struct {
	templates map[promptID]*template.Template
}

// NewPromptManager parses every embedded prompt.
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{templates: make(map[promptID]*template.Template)}

	names, err := fs.Glob(promptFiles, "prompts/*.prompt")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	for _, name := range names {
		id, err := parsePromptName(path.Base(name))
		if err != nil {
			return nil, err
		}
		body, err := promptFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
		if err := pm.register(id.key, id.provider, string(body)); err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
		}
	}
	return pm, nil
}

// parsePromptName splits on the last underscore, so keys may contain underscores.
func parsePromptName(name string) (promptID, error) {
	base := strings.TrimSuffix(name, ".prompt")
	i := strings.LastIndexByte(base, '_')
	if i <= 0 || i == len(base)-1 {
		return promptID{}, fmt.Errorf("prompt file %q is not named <key>_<provider>.prompt", name)
	}
	return promptID{key: PromptKey(base[:i]), provider: ModelProvider(base[i+1:])}, nil
}

func (pm *PromptManager) register(key PromptKey, provider ModelProvider, body string) error {
	tmpl, err := template.New(string(key) + "/" + string(provider)).Parse(body)
	if err != nil {
		return err
	}
	pm.templates[promptID{key: key, provider: provider}] = tmpl
	return nil
}

// Get returns the provider's variant of key, falling back to the default one.
func (pm *PromptManager) Get(key PromptKey, provider ModelProvider) (*template.Template, error) {
	if tmpl, ok := pm.templates[promptID{key: key, provider: provider}]; ok {
		return tmpl, nil
	}
	if tmpl, ok := pm.templates[promptID{key: key, provider: DefaultProvider}]; ok {
		return tmpl, nil
	}
	return nil, fmt.Errorf("%w: %s for provider %s", ErrPromptNotFound, key, provider)
}

// Render executes the prompt for key with data.
func (pm *PromptManager) Render(key PromptKey, provider ModelProvider, data any) (string, error) {
	tmpl, err := pm.Get(key, provider)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", key, err)
	}
	return buf.String(), nil
}
