package scm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/gitutil"
)

// ErrOutsideRoot is returned when a requested path resolves outside the scanned tree.
var ErrOutsideRoot = errors.New("path escapes the scan root")

// Filesystem diffs a directory tree against an optional base tree.
type Filesystem struct {
	comparePath string
	basePath    string
	reporter    Reporter
	logger      *slog.Logger
}

// NewFilesystem returns a provider for comparePath. With an empty basePath
// every file is reported as newly added.
func NewFilesystem(comparePath, basePath string, reporter Reporter, logger *slog.Logger) *Filesystem {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filesystem{
		comparePath: comparePath,
		basePath:    basePath,
		reporter:    reporter,
		logger:      logger,
	}
}

func (f *Filesystem) Name() string {
	if f.basePath == "" {
		return "filesystem:" + f.comparePath
	}
	return fmt.Sprintf("filesystem:%s (against %s)", f.comparePath, f.basePath)
}

func (f *Filesystem) ChangedFiles(_ context.Context) ([]core.ChangedFile, error) {
	names, err := walk(f.comparePath)
	if err != nil {
		return nil, err
	}

	var files []core.ChangedFile
	for _, name := range names {
		newContent, ok, err := f.readText(f.comparePath, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		oldContent := ""
		if f.basePath != "" {
			old, found, err := f.readText(f.basePath, name)
			switch {
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return nil, err
			case err == nil && !found:
				// Binary in the base tree.
				continue
			case err == nil:
				if old == newContent {
					continue
				}
				oldContent = old
			}
		}

		patch, err := gitutil.UnifiedDiff(name, oldContent, newContent)
		if err != nil {
			return nil, err
		}
		if patch == "" {
			continue
		}
		files = append(files, core.ChangedFile{Filename: name, Patch: patch})
	}
	f.logger.Debug("collected changed files", "root", f.comparePath, "count", len(files))
	return files, nil
}

func (f *Filesystem) ReadFile(_ context.Context, filename string) (string, error) {
	path, err := resolveWithin(f.comparePath, filename)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return string(data), nil
}

func (f *Filesystem) CreateReview(_ context.Context, summary string, comments []core.ReviewComment, _ bool) error {
	return report(f.reporter, summary, comments)
}

// readText returns the file content and false when the file is not valid UTF-8.
func (f *Filesystem) readText(root, name string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		return "", false, err
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		f.logger.Debug("file is not valid UTF-8, skipping", "file", name)
		return "", false, nil
	}
	return string(data), true, nil
}

// walk lists regular files under root as slash-separated relative paths,
// skipping dot-prefixed files and directories.
func walk(root string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(names)
	return names, nil
}

func resolveWithin(root, name string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	path := filepath.Join(absRoot, filepath.FromSlash(name))
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrOutsideRoot)
	}
	return path, nil
}
