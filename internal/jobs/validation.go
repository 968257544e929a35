package jobs

import (
	"errors"
	"fmt"

	"github.com/sevigo/diff-warden/internal/core"
)

// ValidateEvent checks that an event carries everything a scan job needs.
func ValidateEvent(event *core.GitHubEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return errors.New("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return errors.New("repository name cannot be empty")
	}
	if event.RepoFullName == "" {
		return errors.New("repository full name cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	if event.InstallationID <= 0 {
		return fmt.Errorf("installation ID must be positive, got: %d", event.InstallationID)
	}
	return nil
}
