// Package pipeline turns the changed files of a source into anchored, deduplicated
// findings and publishes them back as a review.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sevigo/diff-warden/internal/cache"
	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/diff"
	"github.com/sevigo/diff-warden/internal/filter"
	"github.com/sevigo/diff-warden/internal/findings"
	"github.com/sevigo/diff-warden/internal/llm"
	"github.com/sevigo/diff-warden/internal/scheduler"
)

// FallbackSummary is posted when the summary prompt fails.
const FallbackSummary = "Security issues found. Please review the inline comments."

// ReadFileTool is the name of the tool that lets a model read whole files.
const ReadFileTool = "read_file"

// Options tune a scan. Start from DefaultOptions.
type Options struct {
	Analysts            []string
	DisableTools        bool
	MaxLineLength       int
	SkipLineLengthCheck bool
	RateLimit           int
	MinDuration         time.Duration
	PromptRules         *config.PromptRules
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Analysts:      []string{"security"},
		MaxLineLength: filter.DefaultMaxLineLength,
		RateLimit:     scheduler.DefaultLimit,
		MinDuration:   scheduler.DefaultMinDuration,
	}
}

// Failure is a file whose analysis failed.
type Failure struct {
	Filename string
	Err      error
}

// Result is the outcome of a scan.
type Result struct {
	// Changed is the number of files the source reported.
	Changed int
	// Analyzed is the number of files that passed filtering.
	Analyzed int
	// Cached is the number of analyzed files served from the cache.
	Cached   int
	Findings []core.Finding
	Comments []core.ReviewComment
	Failures []Failure
}

// FailedFiles returns the names of the files whose analysis failed.
func (r *Result) FailedFiles() []string {
	names := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		names = append(names, f.Filename)
	}
	return names
}

// SetFindings replaces the findings, e.g. after an interactive edit, and rebuilds
// the comments from them.
func (r *Result) SetFindings(list []core.Finding) {
	r.Findings = list
	r.Comments = findings.Comments(list)
}

type analyst struct {
	persona llm.Persona
	system  string
}

// Pipeline wires a source, an analyzer and the filtering rules together.
type Pipeline struct {
	source   core.SourceProvider
	analyzer core.Analyzer
	prompts  *llm.PromptManager
	rules    *filter.Rules
	store    cache.Store
	opts     Options
	analysts []analyst
	logger   *slog.Logger
}

// New prepares a pipeline. The analyst prompts are rendered up front so that an
// unknown analyst or a broken template fails before any file is read.
func New(
	source core.SourceProvider,
	analyzer core.Analyzer,
	prompts *llm.PromptManager,
	rules *filter.Rules,
	store cache.Store,
	opts Options,
	logger *slog.Logger,
) (*Pipeline, error) {
	if source == nil {
		return nil, errors.New("source provider cannot be nil")
	}
	if analyzer == nil {
		return nil, errors.New("analyzer cannot be nil")
	}
	if prompts == nil {
		return nil, errors.New("prompt manager cannot be nil")
	}
	if rules == nil {
		rules = filter.New(nil, nil, nil, nil)
	}
	if store == nil {
		store = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Analysts) == 0 {
		opts.Analysts = DefaultOptions().Analysts
	}

	p := &Pipeline{
		source:   source,
		analyzer: analyzer,
		prompts:  prompts,
		rules:    rules,
		store:    store,
		opts:     opts,
		logger:   logger,
	}

	provider := llm.ModelProvider(analyzer.Name())
	format, err := prompts.Render(llm.FindingsFormatPrompt, provider, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to render findings format prompt: %w", err)
	}
	for _, name := range opts.Analysts {
		persona, err := llm.LookupPersona(name)
		if err != nil {
			return nil, err
		}
		prompt, err := prompts.Render(persona.Prompt, provider, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s prompt: %w", name, err)
		}
		p.analysts = append(p.analysts, analyst{
			persona: persona,
			system:  opts.PromptRules.Apply(prompt) + "\n\n" + format,
		})
	}
	return p, nil
}

// Scan lists the changed files, analyzes the relevant ones and returns the anchored
// findings. Only a failure to list the changed files is returned as an error; files
// that fail analysis are reported in Result.Failures.
func (p *Pipeline) Scan(ctx context.Context) (*Result, error) {
	scanStart := time.Now()

	changed, err := p.source.ChangedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get changed files from %s: %w", p.source.Name(), err)
	}
	result := &Result{Changed: len(changed)}
	p.logger.Info("changed files detected", "source", p.source.Name(), "count", len(changed))

	contents := newContentMemo(p.source.ReadFile)
	selected := p.selectFiles(ctx, changed, contents)
	result.Analyzed = len(selected)
	if len(selected) == 0 {
		p.logger.Info("no files left to analyze after filtering")
		return result, nil
	}

	parsed := make(map[string]*diff.File, len(selected))
	for _, f := range selected {
		parsed[f.Filename] = diff.Parse(f.Patch)
	}

	sched := scheduler.New(p.analyzeFile, contents.get, p.store,
		scheduler.WithLimit(p.opts.RateLimit),
		scheduler.WithMinDuration(p.opts.MinDuration),
		scheduler.WithLogger(p.logger),
	)
	results := sched.Run(ctx, selected)
	for _, r := range results {
		if r.Cached {
			result.Cached++
		}
	}

	all, failed := scheduler.Collect(results)
	for _, r := range failed {
		result.Failures = append(result.Failures, Failure{Filename: r.Filename, Err: r.Err})
	}

	resolved, _ := findings.Map(all, parsed)
	result.SetFindings(findings.Dedupe(resolved))

	p.logger.Info("scan finished",
		"analyzed", result.Analyzed,
		"cached", result.Cached,
		"raw_findings", len(all),
		"findings", len(result.Findings),
		"failures", len(result.Failures),
		"duration", time.Since(scanStart),
	)
	return result, nil
}

// Publish summarizes the findings and posts the review to the source. It returns the
// summary that was posted.
func (p *Pipeline) Publish(ctx context.Context, result *Result) (string, error) {
	if result == nil {
		return "", errors.New("result cannot be nil")
	}
	summary := p.Summarize(ctx, result.Findings)
	if err := p.source.CreateReview(ctx, summary, result.Comments, true); err != nil {
		return summary, fmt.Errorf("failed to create review on %s: %w", p.source.Name(), err)
	}
	return summary, nil
}

// Summarize asks the analyzer for a review summary of the findings. Any failure
// yields FallbackSummary.
func (p *Pipeline) Summarize(ctx context.Context, list []core.Finding) string {
	system, err := p.prompts.Render(llm.SummaryPrompt, llm.ModelProvider(p.analyzer.Name()), nil)
	if err != nil {
		p.logger.Error("failed to render summary prompt", "error", err)
		return FallbackSummary
	}
	summary, err := p.analyzer.Prompt(ctx, system, SummaryInput(list), nil)
	if err != nil {
		p.logger.Error("failed to generate summary", "error", err)
		return FallbackSummary
	}
	if strings.TrimSpace(summary) == "" {
		return FallbackSummary
	}
	return summary
}

// NewShellSession starts an analyzer conversation about count findings. The
// conversation gets the scan tools plus extra.
func (p *Pipeline) NewShellSession(count int, extra ...core.Tool) (core.Session, error) {
	system, err := p.prompts.Render(llm.ShellPrompt, llm.ModelProvider(p.analyzer.Name()), map[string]any{
		"Target": p.source.Name(),
		"Count":  count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render shell prompt: %w", err)
	}
	tools := append(p.Tools(), extra...)
	return p.analyzer.NewSession(system, tools)
}

// SummaryInput lists the findings the way the summary prompt expects them.
func SummaryInput(list []core.Finding) string {
	var sb strings.Builder
	for _, f := range list {
		fmt.Fprintf(&sb, "- **File**: `%s`\n  - **Issue**: %s\n  - **Recommendation**: %s\n\n", f.File, f.Issue, f.Recommendation)
	}
	return sb.String()
}

// Tools returns the tools offered to the model, or nil when tools are disabled.
func (p *Pipeline) Tools() []core.Tool {
	if p.opts.DisableTools {
		return nil
	}
	return []core.Tool{ReadFile(p.source)}
}

// ReadFile exposes a source's ReadFile as a model tool.
func ReadFile(source core.SourceProvider) core.Tool {
	return core.Tool{
		Name:        ReadFileTool,
		Description: "Returns the full current content of a file in the change set. The argument is the file path.",
		Run: func(ctx context.Context, arg string) (string, error) {
			return source.ReadFile(ctx, strings.TrimSpace(arg))
		},
	}
}

// UserPrompt is the per-file message sent to every analyst.
func UserPrompt(file core.ChangedFile) string {
	return fmt.Sprintf("\n\nFile: %s\n%s\n", file.Filename, file.Patch)
}

func (p *Pipeline) analyzeFile(ctx context.Context, file core.ChangedFile) ([]core.Finding, error) {
	user := UserPrompt(file)
	tools := p.Tools()

	var out []core.Finding
	for _, a := range p.analysts {
		p.logger.Debug("analyzing file", "file", file.Filename, "analyst", a.persona.Name)
		list, err := p.analyzer.Findings(ctx, a.system, user, tools)
		if err != nil {
			return nil, fmt.Errorf("%s analyst failed on %s: %w", a.persona.Name, file.Filename, err)
		}
		for _, f := range list {
			out = append(out, a.persona.Apply(f, file.Filename))
		}
	}
	return out, nil
}

func (p *Pipeline) selectFiles(ctx context.Context, changed []core.ChangedFile, contents *contentMemo) []core.ChangedFile {
	selected := make([]core.ChangedFile, 0, len(changed))
	for _, f := range changed {
		if f.Patch == "" {
			p.logger.Debug("skipping file without patch", "file", f.Filename)
			continue
		}
		if !p.rules.Included(f.Filename) {
			p.logger.Debug("skipping filtered file", "file", f.Filename)
			continue
		}
		if !p.opts.SkipLineLengthCheck && p.opts.MaxLineLength > 0 {
			content, err := contents.get(ctx, f.Filename)
			if err != nil {
				p.logger.Warn("could not read file for line length check", "file", f.Filename, "error", err)
			}
			if filter.ExceedsLineLength(content, f.Patch, p.opts.MaxLineLength) {
				p.logger.Info("skipping file with over-long lines", "file", f.Filename, "max", p.opts.MaxLineLength)
				continue
			}
		}
		selected = append(selected, f)
	}
	return selected
}

type contentResult struct {
	content string
	err     error
}

// contentMemo reads each file at most once per scan.
type contentMemo struct {
	read func(ctx context.Context, filename string) (string, error)

	mu   sync.Mutex
	seen map[string]contentResult
}

func newContentMemo(read func(ctx context.Context, filename string) (string, error)) *contentMemo {
	return &contentMemo{read: read, seen: make(map[string]contentResult)}
}

func (m *contentMemo) get(ctx context.Context, filename string) (string, error) {
	m.mu.Lock()
	if r, ok := m.seen[filename]; ok {
		m.mu.Unlock()
		return r.content, r.err
	}
	m.mu.Unlock()

	content, err := m.read(ctx, filename)

	m.mu.Lock()
	m.seen[filename] = contentResult{content: content, err: err}
	m.mu.Unlock()
	return content, err
}
