// Package llm adapts language models to the core.Analyzer boundary: prompt assembly,
// the tool-call protocol, response parsing and the analyst personas.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/diff-warden/internal/core"
)

const (
	// DefaultTimeout bounds a single model call.
	DefaultTimeout = 5 * time.Minute
	// DefaultMaxToolRounds bounds the number of tool calls per prompt.
	DefaultMaxToolRounds = 3
)

// ErrSessionUnsupported is returned by analyzers that cannot hold a conversation.
var ErrSessionUnsupported = errors.New("interactive sessions are not supported by this analyzer")

// CallFunc sends a fully assembled prompt to a model.
type CallFunc func(ctx context.Context, prompt string) (string, error)

// FromModel adapts a goframe model to a CallFunc.
func FromModel(model llms.Model) CallFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return model.Call(ctx, prompt)
	}
}

// Analyzer implements core.Analyzer on top of a text completion model.
type Analyzer struct {
	name          string
	call          CallFunc
	prompts       *PromptManager
	timeout       time.Duration
	maxToolRounds int
	logger        *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxToolRounds sets how many tool calls a single prompt may make.
func WithMaxToolRounds(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n >= 0 {
			a.maxToolRounds = n
		}
	}
}

// NewAnalyzer creates an Analyzer. name is the provider name and selects
// provider-specific prompt variants.
func NewAnalyzer(name string, call CallFunc, prompts *PromptManager, logger *slog.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		name:          name,
		call:          call,
		prompts:       prompts,
		timeout:       DefaultTimeout,
		maxToolRounds: DefaultMaxToolRounds,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider name.
func (a *Analyzer) Name() string {
	return a.name
}

// Findings runs a structured prompt and parses the findings from the response.
func (a *Analyzer) Findings(ctx context.Context, system, user string, tools []core.Tool) ([]core.Finding, error) {
	resp, err := a.converse(ctx, system, tools, []turn{{role: roleUser, content: user}})
	if err != nil {
		return nil, err
	}
	findings, err := parseFindings(resp)
	if err != nil {
		a.logger.Debug("unparseable model response", "response", resp)
		return nil, fmt.Errorf("failed to parse findings: %w", err)
	}
	return findings, nil
}

// Prompt runs a free-text prompt.
func (a *Analyzer) Prompt(ctx context.Context, system, user string, tools []core.Tool) (string, error) {
	resp, err := a.converse(ctx, system, tools, []turn{{role: roleUser, content: user}})
	if err != nil {
		return "", err
	}
	return stripMarkdownFence(resp), nil
}

// NewSession starts a conversation that keeps its transcript between messages.
func (a *Analyzer) NewSession(system string, tools []core.Tool) (core.Session, error) {
	return &session{analyzer: a, system: system, tools: tools}, nil
}

type role string

const (
	roleUser      role = "USER"
	roleAssistant role = "ASSISTANT"
	roleTool      role = "TOOL RESULT"
)

type turn struct {
	role    role
	content string
}

// converse drives the tool-call loop and returns the final answer. Tool exchanges are
// appended to a local copy of the transcript and not kept.
func (a *Analyzer) converse(ctx context.Context, system string, tools []core.Tool, transcript []turn) (string, error) {
	toolBlock, err := a.toolInstructions(tools)
	if err != nil {
		return "", err
	}

	for round := 0; ; round++ {
		allowTools := len(tools) > 0 && round < a.maxToolRounds
		prompt := buildPrompt(system, toolBlock, transcript, allowTools)

		resp, err := generateWithTimeout(ctx, a.call, prompt, a.timeout)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", fmt.Errorf("generation timed out: %w", err)
			}
			return "", fmt.Errorf("LLM call failed: %w", err)
		}

		if !allowTools {
			return resp, nil
		}
		call, ok := parseToolCall(resp)
		if !ok {
			return resp, nil
		}

		result := runTool(ctx, tools, call)
		a.logger.Debug("tool called", "tool", call.Tool, "argument", call.Argument, "round", round+1)
		transcript = append(transcript,
			turn{role: roleAssistant, content: resp},
			turn{role: roleTool, content: call.Tool + ":\n" + result},
		)
	}
}

func (a *Analyzer) toolInstructions(tools []core.Tool) (string, error) {
	if len(tools) == 0 {
		return "", nil
	}
	return a.prompts.Render(ToolsPrompt, ModelProvider(a.name), tools)
}

func runTool(ctx context.Context, tools []core.Tool, call toolCall) string {
	for _, t := range tools {
		if t.Name != call.Tool {
			continue
		}
		out, err := t.Run(ctx, call.Argument)
		if err != nil {
			return "error: " + err.Error()
		}
		return out
	}
	return fmt.Sprintf("error: unknown tool %q", call.Tool)
}

func buildPrompt(system, toolBlock string, transcript []turn, allowTools bool) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(system))
	sb.WriteString("\n\n")
	if allowTools && toolBlock != "" {
		sb.WriteString(strings.TrimSpace(toolBlock))
		sb.WriteString("\n\n")
	} else if toolBlock != "" {
		sb.WriteString("Tools are no longer available. Answer now with the information you have.\n\n")
	}
	for _, t := range transcript {
		sb.WriteString(string(t.role))
		sb.WriteString(":\n")
		sb.WriteString(t.content)
		sb.WriteString("\n\n")
	}
	sb.WriteString(string(roleAssistant))
	sb.WriteString(":\n")
	return sb.String()
}

// generateWithTimeout wraps LLM generation with a hard timeout.
func generateWithTimeout(ctx context.Context, call CallFunc, prompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := call(ctx, prompt)
		select {
		case resultCh <- result{resp, err}:
		case <-ctx.Done():
			// Do not block the goroutine if parent timed out/cancelled
		}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type session struct {
	analyzer   *Analyzer
	system     string
	tools      []core.Tool
	mu         sync.Mutex
	transcript []turn
}

func (s *session) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript := append(append([]turn(nil), s.transcript...), turn{role: roleUser, content: message})
	resp, err := s.analyzer.converse(ctx, s.system, s.tools, transcript)
	if err != nil {
		return "", err
	}
	resp = stripMarkdownFence(resp)
	s.transcript = append(transcript, turn{role: roleAssistant, content: resp})
	return resp, nil
}

func (s *session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
}
