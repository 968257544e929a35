package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParsing  = errors.New("config parsing failed")
)

// PromptRules lets a project adjust the analyst prompt without rebuilding.
type PromptRules struct {
	Override string `yaml:"PROMPT_OVERRIDE"`
	Pre      string `yaml:"PROMPT_PRE"`
	Post     string `yaml:"PROMPT_POST"`
}

// Apply returns the override when one is set, otherwise the prompt wrapped in Pre and Post.
func (r *PromptRules) Apply(prompt string) string {
	if r == nil {
		return prompt
	}
	if r.Override != "" {
		return r.Override
	}
	return r.Pre + prompt + r.Post
}

// LoadPromptRules reads the rules file. A missing file yields empty rules together
// with ErrConfigNotFound; callers usually ignore that error.
func LoadPromptRules(path string) (*PromptRules, error) {
	rules := &PromptRules{}
	if path == "" {
		return rules, ErrConfigNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	return rules, nil
}
