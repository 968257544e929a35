package shell

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/diff-warden/internal/core"
)

func sample() []core.Finding {
	return []core.Finding{
		{File: "a.go", Issue: "first", WeaknessID: "CWE-1", Priority: 9},
		{File: "b.go", Issue: "second | piped", WeaknessID: "CWE-2", Priority: 5},
		{File: "c.go", Issue: "third", WeaknessID: "N/A", Priority: 1},
	}
}

func TestFindings_DropAndReset(t *testing.T) {
	f := NewFindings(sample())

	dropped, err := f.Drop(2)
	require.NoError(t, err)
	assert.Equal(t, "second | piped", dropped.Issue)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "third", f.List()[1].Issue)

	_, err = f.Drop(0)
	assert.Error(t, err)
	_, err = f.Drop(3)
	assert.Error(t, err)

	f.Reset()
	assert.Equal(t, sample(), f.List())
}

func TestFindings_ListIsACopy(t *testing.T) {
	f := NewFindings(sample())
	list := f.List()
	list[0].Issue = "mutated"
	assert.Equal(t, "first", f.List()[0].Issue)
}

func TestFindings_Table(t *testing.T) {
	assert.Equal(t, "_No findings._", NewFindings(nil).Table())

	table := NewFindings(sample()).Table()
	assert.Contains(t, table, "| 1 | CRITICAL | a.go | 0 | CWE-1 | first |")
	assert.Contains(t, table, `second \| piped`)
}

func TestFindings_Tool(t *testing.T) {
	f := NewFindings(sample())
	tool := f.Tool()
	assert.Equal(t, GetFindingsTool, tool.Name)

	_, err := f.Drop(1)
	require.NoError(t, err)

	out, err := tool.Run(context.Background(), "")
	require.NoError(t, err)
	var got []core.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b.go", got[0].File)
}
