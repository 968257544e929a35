package scm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sevigo/diff-warden/internal/core"
)

type recordingReporter struct {
	summary  string
	comments []core.ReviewComment
	calls    int
}

func (r *recordingReporter) Review(summary string, comments []core.ReviewComment) error {
	r.calls++
	r.summary = summary
	r.comments = comments
	return nil
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}
