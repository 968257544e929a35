package gitutil

import (
	"bytes"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// UnifiedDiff renders a unified diff between two versions of the same file.
// An empty oldContent produces an all-additions patch. The result starts at
// the first hunk header; identical inputs produce an empty string.
func UnifiedDiff(name, oldContent, newContent string) (string, error) {
	if oldContent == newContent {
		return "", nil
	}

	fp := &filePatch{to: &blob{path: name, content: newContent}}
	if oldContent != "" {
		fp.from = &blob{path: name, content: oldContent}
	}
	for _, d := range diff.Do(oldContent, newContent) {
		fp.chunks = append(fp.chunks, chunk{content: d.Text, op: operation(d.Type)})
	}

	var buf bytes.Buffer
	enc := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines)
	if err := enc.Encode(patch{fp}); err != nil {
		return "", fmt.Errorf("failed to encode diff for %s: %w", name, err)
	}
	return TrimPatchHeader(buf.String()), nil
}

func operation(t diffmatchpatch.Operation) fdiff.Operation {
	switch t {
	case diffmatchpatch.DiffInsert:
		return fdiff.Add
	case diffmatchpatch.DiffDelete:
		return fdiff.Delete
	default:
		return fdiff.Equal
	}
}

type patch []fdiff.FilePatch

func (p patch) FilePatches() []fdiff.FilePatch { return p }
func (p patch) Message() string                { return "" }

type filePatch struct {
	from, to *blob
	chunks   []fdiff.Chunk
}

func (p *filePatch) IsBinary() bool { return false }

func (p *filePatch) Files() (from, to fdiff.File) {
	// Typed nils must not leak into the interface.
	if p.from != nil {
		from = p.from
	}
	if p.to != nil {
		to = p.to
	}
	return from, to
}

func (p *filePatch) Chunks() []fdiff.Chunk { return p.chunks }

type blob struct {
	path    string
	content string
}

func (b *blob) Hash() plumbing.Hash {
	return plumbing.ComputeHash(plumbing.BlobObject, []byte(b.content))
}
func (b *blob) Mode() filemode.FileMode { return filemode.Regular }
func (b *blob) Path() string            { return b.path }

type chunk struct {
	content string
	op      fdiff.Operation
}

func (c chunk) Content() string       { return c.content }
func (c chunk) Type() fdiff.Operation { return c.op }
