package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/findings"
)

// CheckRunName is the name shown in the pull request checks list.
const CheckRunName = "Diff-Warden Scan"

// Check run conclusions.
const (
	ConclusionSuccess = "success"
	ConclusionNeutral = "neutral"
	ConclusionFailure = "failure"
)

// StatusUpdater defines the contract for updating the status of a GitHub Check Run.
type StatusUpdater interface {
	InProgress(ctx context.Context, event *core.GitHubEvent, title, summary string) (int64, error)
	Completed(ctx context.Context, event *core.GitHubEvent, checkRunID int64, conclusion, title, summary string) error
}

type statusUpdater struct {
	client Client
}

// NewStatusUpdater creates and returns a new instance of a statusUpdater.
func NewStatusUpdater(client Client) StatusUpdater {
	return &statusUpdater{client: client}
}

// InProgress creates a new GitHub Check Run with an "in_progress" status.
func (s *statusUpdater) InProgress(ctx context.Context, event *core.GitHubEvent, title, summary string) (int64, error) {
	opts := github.CreateCheckRunOptions{
		Name:    CheckRunName,
		HeadSHA: event.HeadSHA,
		Status:  github.Ptr("in_progress"),
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	checkRun, err := s.client.CreateCheckRun(ctx, event.RepoOwner, event.RepoName, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to create check run: %w", err)
	}
	return checkRun.GetID(), nil
}

// Completed updates an existing GitHub Check Run to a "completed" status.
func (s *statusUpdater) Completed(ctx context.Context, event *core.GitHubEvent, checkRunID int64, conclusion, title, summary string) error {
	now := time.Now()
	opts := github.UpdateCheckRunOptions{
		Name:        CheckRunName,
		Status:      github.Ptr("completed"),
		Conclusion:  &conclusion,
		CompletedAt: &github.Timestamp{Time: now},
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	_, err := s.client.UpdateCheckRun(ctx, event.RepoOwner, event.RepoName, checkRunID, opts)
	return err
}

var severityOrder = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW"}

// FormatRunSummary renders the check run summary: the review summary followed by
// a severity table and the per-file failure count.
func FormatRunSummary(summary string, list []core.Finding, failedFiles []string) string {
	counts := make(map[string]int, len(severityOrder))
	for _, f := range list {
		counts[findings.Severity(f.Priority)]++
	}

	var sb strings.Builder
	if len(list) == 0 {
		sb.WriteString("### ✅ No issues found\n\n")
	} else {
		fmt.Fprintf(&sb, "### 🛡️ %d issue(s) found\n\n", len(list))
	}

	if s := strings.TrimSpace(summary); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}

	if len(list) > 0 {
		sb.WriteString("---\n")
		sb.WriteString("#### 📊 Issue Statistics\n\n")
		sb.WriteString("| Severity | Count |\n")
		sb.WriteString("|----------|-------|\n")
		for _, sev := range severityOrder {
			if count := counts[sev]; count > 0 {
				fmt.Fprintf(&sb, "| %s %s | %d |\n", severityEmoji(sev), sev, count)
			}
		}
	}

	if len(failedFiles) > 0 {
		fmt.Fprintf(&sb, "\n> [!%s]\n> %d file(s) could not be analyzed: %s\n",
			severityAlert("MEDIUM"), len(failedFiles), strings.Join(failedFiles, ", "))
	}

	return sb.String()
}

// severityEmoji returns an emoji for the given severity level.
func severityEmoji(severity string) string {
	switch severity {
	case "CRITICAL":
		return "🔴"
	case "HIGH":
		return "🟠"
	case "MEDIUM":
		return "🟡"
	case "LOW":
		return "🟢"
	default:
		return "⚪"
	}
}

// severityAlert returns the GitHub Alert type (NOTE, TIP, IMPORTANT, WARNING, CAUTION) for a severity.
func severityAlert(severity string) string {
	switch severity {
	case "CRITICAL":
		return "CAUTION"
	case "HIGH":
		return "WARNING"
	case "MEDIUM":
		return "IMPORTANT"
	default:
		return "NOTE"
	}
}
