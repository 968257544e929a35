package scm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/diff"
)

func filenames(files []core.ChangedFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	return names
}

func TestFilesystem_NoBase(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":         "package main\n\nfunc main() {}\n",
		"sub/util.py":     "print('x')\n",
		"image.bin":       "\x00\x01\x02\xff",
		".git/config":     "[core]\n",
		".hidden/skip.go": "package skip\n",
	})

	p := NewFilesystem(root, "", nil, nil)
	files, err := p.ChangedFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "sub/util.py"}, filenames(files))

	parsed := diff.Parse(files[0].Patch)
	assert.Equal(t, []int{1, 2, 3}, parsed.Lines())
	assert.Equal(t, "func main() {}", parsed.Text[3])
}

func TestFilesystem_WithBase(t *testing.T) {
	base := t.TempDir()
	compare := t.TempDir()
	writeTree(t, base, map[string]string{
		"same.go":    "package same\n",
		"changed.go": "package changed\n\nvar a = 1\n",
		"removed.go": "package removed\n",
	})
	writeTree(t, compare, map[string]string{
		"same.go":    "package same\n",
		"changed.go": "package changed\n\nvar a = 2\n",
		"added.go":   "package added\n",
	})

	p := NewFilesystem(compare, base, nil, nil)
	files, err := p.ChangedFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"added.go", "changed.go"}, filenames(files))

	parsed := diff.Parse(files[1].Patch)
	line, ok := parsed.Find("var a = 2")
	require.True(t, ok)
	assert.Equal(t, 3, line)
}

func TestFilesystem_ReadFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"dir/a.txt": "hello\n"})
	p := NewFilesystem(root, "", nil, nil)

	content, err := p.ReadFile(context.Background(), "dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", content)

	_, err = p.ReadFile(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = p.ReadFile(context.Background(), "missing.txt")
	assert.Error(t, err)
}

func TestFilesystem_CreateReviewReports(t *testing.T) {
	rec := &recordingReporter{}
	p := NewFilesystem(t.TempDir(), "", rec, nil)

	comments := []core.ReviewComment{{Path: "a.go", Position: 1, Body: "b"}}
	require.NoError(t, p.CreateReview(context.Background(), "sum", comments, true))
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "sum", rec.summary)
	assert.Equal(t, comments, rec.comments)

	assert.NoError(t, NewFilesystem(t.TempDir(), "", nil, nil).CreateReview(context.Background(), "sum", comments, false))
}
