package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sevigo/diff-warden/internal/llm"
	"github.com/sevigo/diff-warden/internal/wire"
)

var poemForms = []string{
	"haiku", "limerick", "ode", "villanelle", "sonnet",
	"acrostic", "free verse", "elegy", "ballad",
}

var poemCmd = &cobra.Command{
	Use:   "poem",
	Short: "Ask the configured model for a DevSecOps poem",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		analyzer, err := wire.InitializeAnalyzer(ctx, cfg, appLogger)
		if err != nil {
			return err
		}
		prompts, err := llm.NewPromptManager()
		if err != nil {
			return err
		}

		form := poemForms[rand.IntN(len(poemForms))]
		system, err := prompts.Render(llm.PoemPrompt, llm.ModelProvider(analyzer.Name()), map[string]any{"Form": form})
		if err != nil {
			return err
		}
		poem, err := analyzer.Prompt(ctx, system, "Write the poem.", nil)
		if err != nil {
			return fmt.Errorf("failed to generate poem: %w", err)
		}

		console, err := newConsole()
		if err != nil {
			return err
		}
		return console.Markdown(strings.TrimSpace(poem))
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(poemCmd)
}
