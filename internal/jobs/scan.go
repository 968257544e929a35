package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/github"
	"github.com/sevigo/diff-warden/internal/pipeline"
	"github.com/sevigo/diff-warden/internal/scm"
	"github.com/sevigo/diff-warden/internal/storage"
)

// PipelineFactory builds a scan pipeline for a source.
type PipelineFactory func(source core.SourceProvider) (*pipeline.Pipeline, error)

// ScanJob scans a pull request, posts the review and reports the outcome as a check run.
type ScanJob struct {
	clients     github.InstallationClientFactory
	newPipeline PipelineFactory
	store       storage.Store
	provider    string
	logger      *slog.Logger
}

// NewScanJob creates a ScanJob. store may be nil, in which case runs are not recorded.
// provider is the analyzer name recorded with every run.
func NewScanJob(clients github.InstallationClientFactory, newPipeline PipelineFactory, store storage.Store, provider string, logger *slog.Logger) *ScanJob {
	if clients == nil {
		panic("installation client factory cannot be nil")
	}
	if newPipeline == nil {
		panic("pipeline factory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ScanJob{
		clients:     clients,
		newPipeline: newPipeline,
		store:       store,
		provider:    provider,
		logger:      logger,
	}
}

// Run executes the scan for a GitHub event.
func (j *ScanJob) Run(ctx context.Context, event *core.GitHubEvent) error {
	if err := ValidateEvent(event); err != nil {
		j.logger.Error("Input validation failed", "error", err)
		return fmt.Errorf("input validation failed: %w", err)
	}
	j.logger.Info("Starting scan job", "repo", event.RepoFullName, "pr", event.PRNumber)

	client, err := j.clients(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	source := scm.NewGitHub(client, event.RepoOwner, event.RepoName, event.PRNumber)
	if event.HeadSHA != "" {
		source.WithHeadSHA(event.HeadSHA)
	}
	if event.HeadSHA, err = source.HeadSHA(ctx); err != nil {
		return fmt.Errorf("failed to resolve head commit: %w", err)
	}

	status := github.NewStatusUpdater(client)
	checkRunID, err := status.InProgress(ctx, event, "Scan in progress", "Analyzing the changed files...")
	if err != nil {
		return fmt.Errorf("failed to set in-progress status: %w", err)
	}

	run := &core.ScanRun{
		RepoFullName: event.RepoFullName,
		PRNumber:     event.PRNumber,
		HeadSHA:      event.HeadSHA,
		Provider:     j.provider,
		Status:       core.RunStatusFailed,
	}

	p, err := j.newPipeline(source)
	if err != nil {
		j.fail(ctx, status, event, checkRunID, run, "Failed to prepare the scan")
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	result, err := p.Scan(ctx)
	if err != nil {
		j.fail(ctx, status, event, checkRunID, run, "Failed to list the changed files")
		return fmt.Errorf("scan failed: %w", err)
	}
	run.FilesChanged = result.Changed
	run.FilesScanned = result.Analyzed
	run.Failures = len(result.Failures)
	run.Findings = len(result.Findings)

	conclusion, title, summary := github.ConclusionSuccess, "No issues found", "No issues detected in the changed files."
	run.Status = core.RunStatusCompleted
	failures := len(result.Failures)
	switch {
	case len(result.Findings) > 0:
		summary, err = p.Publish(ctx, result)
		if err != nil {
			j.fail(ctx, status, event, checkRunID, run, "Failed to post the review")
			return fmt.Errorf("failed to publish review: %w", err)
		}
		conclusion, title = github.ConclusionNeutral, fmt.Sprintf("%d issue(s) found", len(result.Findings))
		if failures > 0 {
			title += fmt.Sprintf(", %d file(s) could not be analyzed", failures)
		}
	case result.Analyzed > 0 && failures == result.Analyzed:
		conclusion, title = github.ConclusionFailure, "Scan failed"
		summary = fmt.Sprintf("None of the %d file(s) could be analyzed.", failures)
		run.Status = core.RunStatusFailed
	case failures > 0:
		conclusion, title = github.ConclusionNeutral, fmt.Sprintf("%d file(s) could not be analyzed", failures)
		summary = "No issues detected in the files that could be analyzed."
	}
	run.Summary = summary

	report := github.FormatRunSummary(summary, result.Findings, result.FailedFiles())
	if err := status.Completed(ctx, event, checkRunID, conclusion, title, report); err != nil {
		j.logger.Error("Failed to update completion status", "error", err)
		return fmt.Errorf("failed to update completion status: %w", err)
	}
	j.saveRun(ctx, run)

	j.logger.Info("Scan job completed",
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
		"findings", run.Findings,
		"failures", run.Failures,
	)
	return nil
}

// fail marks the check run as failed and records the failed run.
func (j *ScanJob) fail(ctx context.Context, status github.StatusUpdater, event *core.GitHubEvent, checkRunID int64, run *core.ScanRun, message string) {
	if err := status.Completed(ctx, event, checkRunID, github.ConclusionFailure, "Scan failed", message); err != nil {
		j.logger.Error("Failed to update failure status", "error", err)
	}
	run.Summary = message
	j.saveRun(ctx, run)
}

func (j *ScanJob) saveRun(ctx context.Context, run *core.ScanRun) {
	if j.store == nil {
		return
	}
	if err := j.store.SaveRun(ctx, run); err != nil {
		j.logger.Error("Failed to record scan run", "repo", run.RepoFullName, "pr", run.PRNumber, "error", err)
	}
}
