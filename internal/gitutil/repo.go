// Package gitutil provides helpers for reading changes out of local Git repositories.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/sevigo/diff-warden/internal/core"
)

// ErrBinaryFile is returned when the contents of a binary blob are requested.
var ErrBinaryFile = errors.New("binary file")

// Client reads commits, trees and patches from repositories on disk.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// Open opens a Git repository at a given path.
func (c *Client) Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}

// ResolveCommit resolves a branch, tag, short or full hash to its commit.
func (c *Client) ResolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for %s: %w", hash, err)
	}
	return commit, nil
}

// ChangedFiles diffs the trees of two commits and returns one patch per
// added or modified file. Deleted and binary files are skipped.
func (c *Client) ChangedFiles(ctx context.Context, base, compare *object.Commit) ([]core.ChangedFile, error) {
	baseTree, err := base.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for base commit %s: %w", base.Hash, err)
	}
	compareTree, err := compare.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for compare commit %s: %w", compare.Hash, err)
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, compareTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees between %s and %s: %w", base.Hash, compare.Hash, err)
	}

	var files []core.ChangedFile
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			c.Logger.Error("failed to get action for change, skipping", "error", err)
			continue
		}
		if action == merkletrie.Delete {
			continue
		}

		patch, err := change.PatchContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build patch for %s: %w", change.To.Name, err)
		}
		if isBinaryPatch(patch) {
			c.Logger.Debug("skipping binary file", "file", change.To.Name)
			continue
		}
		files = append(files, core.ChangedFile{
			Filename: change.To.Name,
			Patch:    TrimPatchHeader(patch.String()),
		})
	}
	return files, nil
}

// FileContents returns the contents of name as stored in the commit's tree.
func (c *Client) FileContents(commit *object.Commit, name string) (string, error) {
	file, err := commit.File(name)
	if err != nil {
		return "", fmt.Errorf("failed to find %s in commit %s: %w", name, commit.Hash, err)
	}
	binary, err := file.IsBinary()
	if err != nil {
		return "", fmt.Errorf("failed to inspect %s: %w", name, err)
	}
	if binary {
		return "", fmt.Errorf("%s: %w", name, ErrBinaryFile)
	}
	return file.Contents()
}

// TrimPatchHeader drops the "diff --git", "index" and "---/+++" lines so the
// patch starts at its first hunk header, the same shape GitHub returns.
func TrimPatchHeader(patch string) string {
	if strings.HasPrefix(patch, "@@") {
		return patch
	}
	if i := strings.Index(patch, "\n@@"); i >= 0 {
		return patch[i+1:]
	}
	return ""
}

func isBinaryPatch(p *object.Patch) bool {
	for _, fp := range p.FilePatches() {
		if fp.IsBinary() {
			return true
		}
	}
	return false
}
