package core

import "context"

// Tool is a capability the analyzer may invoke while answering a prompt.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, argument string) (string, error)
}

// Analyzer is the boundary to the language model doing the actual review work.
//
//go:generate mockgen -destination=../../mocks/mock_analyzer.go -package=mocks . Analyzer,Session
type Analyzer interface {
	// Name identifies the backing provider, e.g. "ollama" or "gemini".
	Name() string
	// Findings runs a structured prompt and returns the findings it produced.
	Findings(ctx context.Context, system, user string, tools []Tool) ([]Finding, error)
	// Prompt runs a free-text prompt.
	Prompt(ctx context.Context, system, user string, tools []Tool) (string, error)
	// NewSession starts a conversational agent that keeps its transcript between calls.
	NewSession(system string, tools []Tool) (Session, error)
}

// Session is a stateful conversation with an analyzer.
type Session interface {
	Send(ctx context.Context, message string) (string, error)
	Reset()
}
