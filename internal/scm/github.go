package scm

import (
	"context"
	"fmt"
	"sync"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/github"
)

// GitHub reads a pull request through the GitHub API and posts the review back to it.
type GitHub struct {
	client github.Client
	owner  string
	repo   string
	pr     int

	mu      sync.Mutex
	headSHA string
}

// NewGitHub returns a provider for pull request pr of owner/repo.
func NewGitHub(client github.Client, owner, repo string, pr int) *GitHub {
	return &GitHub{client: client, owner: owner, repo: repo, pr: pr}
}

// WithHeadSHA pins the head commit, skipping the pull request lookup.
func (g *GitHub) WithHeadSHA(sha string) *GitHub {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.headSHA = sha
	return g
}

func (g *GitHub) Name() string {
	return fmt.Sprintf("github:%s/%s#%d", g.owner, g.repo, g.pr)
}

func (g *GitHub) ChangedFiles(ctx context.Context) ([]core.ChangedFile, error) {
	files, err := g.client.GetChangedFiles(ctx, g.owner, g.repo, g.pr)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files of %s/%s#%d: %w", g.owner, g.repo, g.pr, err)
	}
	return files, nil
}

func (g *GitHub) ReadFile(ctx context.Context, filename string) (string, error) {
	sha, err := g.head(ctx)
	if err != nil {
		return "", err
	}
	return g.client.GetFileContent(ctx, g.owner, g.repo, filename, sha)
}

func (g *GitHub) CreateReview(ctx context.Context, summary string, comments []core.ReviewComment, requestChanges bool) error {
	sha, err := g.head(ctx)
	if err != nil {
		return err
	}

	drafts := make([]github.DraftReviewComment, 0, len(comments))
	for _, c := range comments {
		drafts = append(drafts, github.DraftReviewComment{Path: c.Path, Position: c.Position, Body: c.Body})
	}
	event := github.EventComment
	if requestChanges {
		event = github.EventRequestChanges
	}
	return g.client.CreateReview(ctx, g.owner, g.repo, g.pr, sha, summary, event, drafts)
}

// HeadSHA returns the head commit of the pull request.
func (g *GitHub) HeadSHA(ctx context.Context) (string, error) {
	return g.head(ctx)
}

func (g *GitHub) head(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.headSHA != "" {
		return g.headSHA, nil
	}

	pr, err := g.client.GetPullRequest(ctx, g.owner, g.repo, g.pr)
	if err != nil {
		return "", fmt.Errorf("failed to get pull request %s/%s#%d: %w", g.owner, g.repo, g.pr, err)
	}
	sha := pr.GetHead().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("pull request %s/%s#%d has no head commit", g.owner, g.repo, g.pr)
	}
	g.headSHA = sha
	return sha, nil
}
