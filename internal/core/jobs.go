package core

import "context"

// JobDispatcher queues a scan for a webhook event. An error means the event was
// not queued and the caller should answer accordingly.
type JobDispatcher interface {
	Dispatch(ctx context.Context, event *GitHubEvent) error
}

// Job scans the pull request named by event.
type Job interface {
	Run(ctx context.Context, event *GitHubEvent) error
}
