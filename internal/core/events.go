// Package core holds the types shared by the scan pipeline, its sources and
// analyzers, and the webhook server.
package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// ScanCommand is the pull request comment that triggers a scan.
const ScanCommand = "/scan"

// GitHubEvent represents a simplified, internal view of a GitHub webhook event.
type GitHubEvent struct {
	// Repository details
	RepoOwner    string
	RepoName     string
	RepoFullName string
	RepoCloneURL string
	Language     string

	PRNumber int
	PRTitle  string
	PRBody   string
	HeadSHA  string

	// Commenter is empty for pull request events.
	Commenter      string
	InstallationID int64
}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the application's
// internal GitHubEvent representation. Only "/scan" comments on pull requests are accepted.
func EventFromIssueComment(event *github.IssueCommentEvent) (*GitHubEvent, error) {
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	if !strings.EqualFold(strings.TrimSpace(event.GetComment().GetBody()), ScanCommand) {
		return nil, fmt.Errorf("comment is not a scan command")
	}

	repo := event.GetRepo()
	if err := checkRepo(repo); err != nil {
		return nil, err
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	if event.GetComment().GetUser() == nil || event.GetComment().GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("commenter information is missing from the event")
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &GitHubEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		RepoCloneURL:   repo.GetCloneURL(),
		Language:       repo.GetLanguage(),
		InstallationID: event.GetInstallation().GetID(),
		PRNumber:       prNumber,
		PRTitle:        event.GetIssue().GetTitle(),
		PRBody:         event.GetIssue().GetBody(),
		Commenter:      event.GetComment().GetUser().GetLogin(),
	}, nil
}

// EventFromPullRequest accepts pull request events that change the head of the branch.
func EventFromPullRequest(event *github.PullRequestEvent) (*GitHubEvent, error) {
	switch event.GetAction() {
	case "opened", "synchronize", "reopened":
	default:
		return nil, fmt.Errorf("pull request action %q does not trigger a scan", event.GetAction())
	}

	repo := event.GetRepo()
	if err := checkRepo(repo); err != nil {
		return nil, err
	}

	pr := event.GetPullRequest()
	if pr == nil || pr.GetNumber() <= 0 {
		return nil, fmt.Errorf("pull request information is missing from the event")
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &GitHubEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		RepoCloneURL:   repo.GetCloneURL(),
		Language:       repo.GetLanguage(),
		InstallationID: event.GetInstallation().GetID(),
		PRNumber:       pr.GetNumber(),
		PRTitle:        pr.GetTitle(),
		PRBody:         pr.GetBody(),
		HeadSHA:        pr.GetHead().GetSHA(),
	}, nil
}

func checkRepo(repo *github.Repository) error {
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return fmt.Errorf("repository or owner information is missing from the event")
	}
	return nil
}
