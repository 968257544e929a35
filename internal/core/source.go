package core

import "context"

// SourceProvider supplies the changed files of a change set and accepts the resulting review.
//
//go:generate mockgen -destination=../../mocks/mock_source_provider.go -package=mocks . SourceProvider
type SourceProvider interface {
	Name() string
	// ChangedFiles lists every file touched by the change set, with its unified diff.
	ChangedFiles(ctx context.Context) ([]ChangedFile, error)
	// ReadFile returns the current (post-change) content of a file.
	ReadFile(ctx context.Context, filename string) (string, error)
	// CreateReview publishes a summary and the anchored comments.
	CreateReview(ctx context.Context, summary string, comments []ReviewComment, requestChanges bool) error
}
