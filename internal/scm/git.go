package scm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/gitutil"
)

const (
	DefaultBaseRevision    = "main"
	DefaultCompareRevision = "HEAD"
)

// Git diffs two revisions of a local repository.
type Git struct {
	path       string
	baseRev    string
	compareRev string
	reporter   Reporter
	client     *gitutil.Client

	once    sync.Once
	base    *object.Commit
	compare *object.Commit
	openErr error
}

// NewGit returns a provider for the changes between baseRev and compareRev of
// the repository at repoPath. Empty revisions fall back to main and HEAD.
func NewGit(repoPath, baseRev, compareRev string, reporter Reporter, logger *slog.Logger) *Git {
	if baseRev == "" {
		baseRev = DefaultBaseRevision
	}
	if compareRev == "" {
		compareRev = DefaultCompareRevision
	}
	return &Git{
		path:       repoPath,
		baseRev:    baseRev,
		compareRev: compareRev,
		reporter:   reporter,
		client:     gitutil.NewClient(logger),
	}
}

func (g *Git) Name() string {
	return fmt.Sprintf("git:%s (%s..%s)", g.path, g.baseRev, g.compareRev)
}

func (g *Git) ChangedFiles(ctx context.Context) ([]core.ChangedFile, error) {
	if err := g.open(); err != nil {
		return nil, err
	}
	return g.client.ChangedFiles(ctx, g.base, g.compare)
}

func (g *Git) ReadFile(_ context.Context, filename string) (string, error) {
	if err := g.open(); err != nil {
		return "", err
	}
	return g.client.FileContents(g.compare, filename)
}

func (g *Git) CreateReview(_ context.Context, summary string, comments []core.ReviewComment, _ bool) error {
	return report(g.reporter, summary, comments)
}

func (g *Git) open() error {
	g.once.Do(func() {
		repo, err := g.client.Open(g.path)
		if err != nil {
			g.openErr = err
			return
		}
		if g.base, err = g.client.ResolveCommit(repo, g.baseRev); err != nil {
			g.openErr = err
			return
		}
		g.compare, g.openErr = g.client.ResolveCommit(repo, g.compareRev)
	})
	return g.openErr
}
