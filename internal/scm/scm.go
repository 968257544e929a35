// Package scm adapts the places a change set can come from (a GitHub pull
// request, two revisions of a local repository, two directory trees) to
// core.SourceProvider.
package scm

import (
	"github.com/sevigo/diff-warden/internal/core"
)

// Reporter receives reviews from providers that have nowhere to post them.
type Reporter interface {
	Review(summary string, comments []core.ReviewComment) error
}

func report(r Reporter, summary string, comments []core.ReviewComment) error {
	if r == nil {
		return nil
	}
	return r.Review(summary, comments)
}
