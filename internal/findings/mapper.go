// Package findings anchors analyzer findings to diff positions and removes duplicates.
package findings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/diff"
)

const noRecommendation = "None provided."

// Severity maps a 1-9 priority onto the label shown in comments.
func Severity(priority int) string {
	switch {
	case priority > 8:
		return "CRITICAL"
	case priority > 7:
		return "HIGH"
	case priority > 4:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// SortByPriority orders findings by descending priority. Equal priorities keep their order.
func SortByPriority(list []core.Finding) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority > list[j].Priority
	})
}

// Map sorts findings by priority, anchors each one to the first diff line of its file
// whose text contains the snippet, and builds a review comment for every anchored
// finding. Findings that cannot be anchored are dropped.
func Map(all []core.Finding, files map[string]*diff.File) ([]core.Finding, []core.ReviewComment) {
	sorted := make([]core.Finding, len(all))
	copy(sorted, all)
	SortByPriority(sorted)

	resolved := make([]core.Finding, 0, len(sorted))
	comments := make([]core.ReviewComment, 0, len(sorted))

	for _, f := range sorted {
		f.LineNumber = nil
		f.Position = 0

		line, ok := anchor(f, files)
		if !ok {
			continue
		}

		position, _ := files[f.File].Position(line)
		f.LineNumber = &line
		f.Position = position

		resolved = append(resolved, f)
		comments = append(comments, Comment(f))
	}
	return resolved, comments
}

func anchor(f core.Finding, files map[string]*diff.File) (int, bool) {
	if f.File == "" || f.Snippet == "" || f.Issue == "" {
		return 0, false
	}
	if strings.Contains(f.Snippet, "\n") {
		return 0, false
	}
	parsed, ok := files[f.File]
	if !ok || parsed == nil {
		return 0, false
	}
	return parsed.Find(f.Snippet)
}

// Comment builds the review comment of a resolved finding. GitHub positions count
// from the line after the hunk header, so the stored position is shifted by one.
func Comment(f core.Finding) core.ReviewComment {
	return core.ReviewComment{
		Path:     f.File,
		Position: f.Position - 1,
		Body:     CommentBody(f),
	}
}

// CommentBody renders the markdown body of a review comment.
func CommentBody(f core.Finding) string {
	rec := f.Recommendation
	if rec == "" {
		rec = noRecommendation
	}
	return fmt.Sprintf(
		"**Security Issue:** %s\n\n**Priority:** %s\n\n**CWE:** %s\n\n**Recommendation:** %s\n\n**Snippet**: `%s`\n\n",
		f.Issue, Severity(f.Priority), f.WeaknessID, rec, f.Snippet,
	)
}

// Comments rebuilds the comments for an already resolved list, e.g. after it was
// edited interactively. Unresolved entries are skipped.
func Comments(resolved []core.Finding) []core.ReviewComment {
	out := make([]core.ReviewComment, 0, len(resolved))
	for _, f := range resolved {
		if !f.Resolved() {
			continue
		}
		out = append(out, Comment(f))
	}
	return out
}
